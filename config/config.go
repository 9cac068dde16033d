// Package config loads Tike settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/db"
	"github.com/nickyhof/tike/ps"
)

// Environment variables overriding the config file.
const (
	EnvDatabase   = "TIKE_DB"
	EnvBackend    = "TIKE_BACKEND"
	EnvLogLevel   = "TIKE_LOG_LEVEL"
	EnvHistoryDir = "TIKE_HISTORY_DIR"
)

// Config holds everything needed to open a Tike instance.
type Config struct {
	Database string        `yaml:"database"`
	Backend  string        `yaml:"backend"`
	LogLevel string        `yaml:"log_level"`
	History  HistoryConfig `yaml:"history,omitempty"`
	S3       *db.S3Config  `yaml:"s3,omitempty"`
}

// HistoryConfig enables snapshot history when Dir is set.
type HistoryConfig struct {
	Dir    string         `yaml:"dir,omitempty"`
	Author core.Identity  `yaml:"author,omitempty"`
	Remote string         `yaml:"remote,omitempty"` // URL pushed to by --push
	Auth   *ps.RemoteAuth `yaml:"auth,omitempty"`
}

// Enabled reports whether snapshots are recorded.
func (history HistoryConfig) Enabled() bool {
	return history.Dir != ""
}

// Default returns the settings used when no file or environment says
// otherwise: a SQLite database at ~/.tike.db and info logging.
func Default() Config {
	database := ".tike.db"
	if home, err := os.UserHomeDir(); err == nil {
		database = filepath.Join(home, ".tike.db")
	}

	return Config{
		Database: database,
		Backend:  string(ps.BackendSQLite),
		LogLevel: "info",
		History: HistoryConfig{
			Author: core.Identity{Name: "tike", Email: "tike@localhost"},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tike/config.yaml, falling back to
// ~/.config/tike/config.yaml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tike", "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(home, ".config", "tike", "config.yaml"), nil
}

// Load reads the config file at path, applies environment overrides and
// validates the result. An empty path means DefaultPath, which may be
// missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // User-specified config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %w", core.ErrInvalidInput, path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.Database = ExpandHome(cfg.Database)
	cfg.History.Dir = ExpandHome(cfg.History.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvHistoryDir); v != "" {
		cfg.History.Dir = v
	}
}

// Validate checks that the config names a database, a known backend and a
// known log level.
func (cfg *Config) Validate() error {
	if cfg.Database == "" {
		return fmt.Errorf("%w: database path is required", core.ErrInvalidInput)
	}
	if _, err := ps.ParseBackend(cfg.Backend); err != nil {
		return err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.History.Remote != "" && !cfg.History.Enabled() {
		return fmt.Errorf("%w: history remote set without a history dir", core.ErrInvalidInput)
	}
	return cfg.History.Auth.Validate()
}

// Level returns the parsed log level. Call it after Validate.
func (cfg *Config) Level() slog.Level {
	level, _ := ParseLevel(cfg.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", core.ErrInvalidInput, name)
	}
}

// ExpandHome replaces a leading ~ in path with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
