package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nickyhof/tike/core"
)

// S3Config holds credentials for s3:// import and export URLs. Empty fields
// fall back to the AWS default chain (environment, shared config, instance
// role).
type S3Config struct {
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region,omitempty"`
	// Endpoint selects an S3-compatible service such as MinIO. Buckets are
	// then addressed by path.
	Endpoint string `yaml:"endpoint,omitempty"`
}

type locationKind int

const (
	localFile locationKind = iota
	webResource
	s3Object
)

// location is where ExportTo writes or ImportFrom reads JSON Lines.
type location struct {
	kind locationKind
	// path is a filesystem path or an http(s) URL.
	path   string
	bucket string
	key    string
}

// parseLocation accepts a plain path, file://path, http(s)://... or
// s3://bucket/key. Scheme matching ignores case.
func parseLocation(raw string) (location, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return location{kind: localFile, path: raw}, nil
	}

	switch strings.ToLower(scheme) {
	case "file":
		return location{kind: localFile, path: rest}, nil
	case "http", "https":
		return location{kind: webResource, path: raw}, nil
	case "s3":
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return location{}, fmt.Errorf("%w: invalid S3 URL %q, expected s3://bucket/key", core.ErrInvalidInput, raw)
		}
		return location{kind: s3Object, bucket: bucket, key: key}, nil
	default:
		return location{}, fmt.Errorf("%w: unsupported URL scheme %q", core.ErrInvalidInput, scheme)
	}
}

func (loc location) String() string {
	if loc.kind == s3Object {
		return "s3://" + loc.bucket + "/" + loc.key
	}
	return loc.path
}

// open returns a reader over the contents at loc.
func (loc location) open(ctx context.Context, cfg *S3Config) (io.ReadCloser, error) {
	switch loc.kind {
	case webResource:
		return fetch(ctx, loc.path)
	case s3Object:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(loc.bucket),
			Key:    aws.String(loc.key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", loc, err)
		}
		return out.Body, nil
	default:
		return os.Open(loc.path)
	}
}

// create returns a writer replacing the contents at loc. Nothing reaches S3
// until Close.
func (loc location) create(ctx context.Context, cfg *S3Config) (io.WriteCloser, error) {
	switch loc.kind {
	case webResource:
		return nil, fmt.Errorf("%w: cannot export to %s, HTTP locations are read-only", core.ErrInvalidInput, loc)
	case s3Object:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &s3Upload{ctx: ctx, client: client, loc: loc}, nil
	default:
		return os.Create(loc.path)
	}
}

var webClient = &http.Client{Timeout: 5 * time.Minute}

func fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}

	resp, err := webClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

func newS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	if cfg == nil {
		cfg = &S3Config{}
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
		// Many S3-compatible services reject the flexible checksum headers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	}), nil
}

// s3Upload collects an export in memory and stores it with one PutObject on
// Close.
type s3Upload struct {
	ctx    context.Context
	client *s3.Client
	loc    location
	body   bytes.Buffer
	done   bool
}

func (u *s3Upload) Write(p []byte) (int, error) {
	if u.done {
		return 0, fmt.Errorf("write to %s after close", u.loc)
	}
	return u.body.Write(p)
}

func (u *s3Upload) Close() error {
	if u.done {
		return nil
	}
	u.done = true

	_, err := u.client.PutObject(u.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.loc.bucket),
		Key:           aws.String(u.loc.key),
		Body:          bytes.NewReader(u.body.Bytes()),
		ContentLength: aws.Int64(int64(u.body.Len())),
		ContentType:   aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", u.loc, err)
	}
	return nil
}
