package ps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"

	"github.com/nickyhof/tike/core"
)

// AuthType defines the type of authentication
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeToken AuthType = "token"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeBasic AuthType = "basic"
)

// RemoteAuth holds credentials for pushing history. It is read from the
// history section of the config file.
type RemoteAuth struct {
	Type       AuthType `yaml:"type"`
	Token      string   `yaml:"token,omitempty"`
	KeyPath    string   `yaml:"key_path,omitempty"`
	Passphrase string   `yaml:"passphrase,omitempty"`
	Username   string   `yaml:"username,omitempty"`
	Password   string   `yaml:"password,omitempty"`
}

// Remote represents a Git remote
type Remote struct {
	Name string
	URLs []string
}

func (auth *RemoteAuth) Validate() error {
	if auth == nil {
		return nil
	}
	switch auth.Type {
	case "", AuthTypeNone, AuthTypeSSH:
		return nil
	case AuthTypeToken:
		if auth.Token == "" {
			return fmt.Errorf("%w: token auth requires a token", core.ErrInvalidInput)
		}
		return nil
	case AuthTypeBasic:
		if auth.Username == "" {
			return fmt.Errorf("%w: basic auth requires a username", core.ErrInvalidInput)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown auth type %q", core.ErrInvalidInput, auth.Type)
	}
}

// authMethod converts RemoteAuth to go-git's AuthMethod
func (auth *RemoteAuth) authMethod() (transport.AuthMethod, error) {
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, nil
	}

	switch auth.Type {
	case AuthTypeToken:
		// Hosts accept any non-empty username alongside a token
		return &http.BasicAuth{Username: "git", Password: auth.Token}, nil

	case AuthTypeSSH:
		keyPath := auth.KeyPath
		if keyPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to locate ssh key: %w", err)
			}
			keyPath = filepath.Join(home, ".ssh", "id_rsa")
		}
		return ssh.NewPublicKeysFromFile("git", keyPath, auth.Passphrase)

	case AuthTypeBasic:
		return &http.BasicAuth{Username: auth.Username, Password: auth.Password}, nil

	default:
		return nil, nil
	}
}

// AddRemote adds a named remote to the history repository. Adding a remote
// that already exists with the same URL is a no-op.
func (history *History) AddRemote(name, url string) error {
	if existing, err := history.repo.Remote(name); err == nil {
		urls := existing.Config().URLs
		if len(urls) == 1 && urls[0] == url {
			return nil
		}
		return fmt.Errorf("%w: remote '%s' already points at %v", core.ErrInvalidInput, name, urls)
	}

	_, err := history.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to add remote '%s': %w", name, err)
	}
	return nil
}

// ListRemotes returns all configured remotes
func (history *History) ListRemotes() ([]Remote, error) {
	remotes, err := history.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}

	result := make([]Remote, len(remotes))
	for i, r := range remotes {
		cfg := r.Config()
		result[i] = Remote{Name: cfg.Name, URLs: cfg.URLs}
	}
	return result, nil
}

// Push sends the current branch and every tag to remoteName, "origin" by
// default. An up-to-date remote is not an error.
func (history *History) Push(remoteName string, auth *RemoteAuth) error {
	if remoteName == "" {
		remoteName = "origin"
	}

	headRef, err := history.repo.Head()
	if err != nil {
		return fmt.Errorf("%w: no snapshots to push", core.ErrNotFound)
	}
	branch := headRef.Name().Short()

	method, err := auth.authMethod()
	if err != nil {
		return fmt.Errorf("failed to configure auth: %w", err)
	}

	err = history.repo.Push(&git.PushOptions{
		RemoteName: remoteName,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
			config.RefSpec("refs/tags/*:refs/tags/*"),
		},
		Auth: method,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push to '%s': %w", remoteName, err)
	}
	return nil
}
