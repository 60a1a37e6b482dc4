// Package config holds Hindsight's static configuration: polling
// interval, enabled browsers, store location, logging. Everything is
// resolved once at process start; nothing changes at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/hindsight/internal/browser"
)

// Default config file path.
const DefaultConfigPath = "~/.config/hindsight/config.yaml"

// Config holds all Hindsight configuration.
type Config struct {
	IntervalSeconds int            `yaml:"interval_seconds"`
	Browsers        []string       `yaml:"browsers"`
	Storage         StorageConfig  `yaml:"storage"`
	Logging         LoggingConfig  `yaml:"logging"`
	Snapshot        SnapshotConfig `yaml:"snapshot"`
}

type StorageConfig struct {
	Path       string `yaml:"path"`
	SQLiteFile string `yaml:"sqlite_file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "text"
}

type SnapshotConfig struct {
	TmpDir               string `yaml:"tmp_dir"`
	ShadowTimeoutSeconds int    `yaml:"shadow_timeout_seconds"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadOrCreate loads the config from the default path (or the
// HINDSIGHT_CONFIG override). If the file does not exist, it creates
// the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path := os.Getenv("HINDSIGHT_CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		cfg.applyEnv()
		return cfg, nil
	}

	return Load(path)
}

// applyEnv folds process-environment overrides into the config.
func (c *Config) applyEnv() {
	if db := os.Getenv("HINDSIGHT_DB"); db != "" {
		c.Storage.Path = filepath.Dir(db)
		c.Storage.SQLiteFile = filepath.Base(db)
	}
	if iv := os.Getenv("HINDSIGHT_INTERVAL"); iv != "" {
		if n, err := strconv.Atoi(iv); err == nil && n > 0 {
			c.IntervalSeconds = n
		}
	}
}

// Interval returns the polling interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// DBPath returns the fully resolved path of the durable store.
func (c *Config) DBPath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// EnabledBrowsers resolves the configured browser identifiers into a
// typed list, rejecting unknown names. This is the one place browser
// names from configuration are validated; the ingestion core only ever
// sees the typed values.
func (c *Config) EnabledBrowsers() ([]browser.Browser, error) {
	if len(c.Browsers) == 0 {
		return nil, fmt.Errorf("no browsers enabled")
	}

	browsers := make([]browser.Browser, 0, len(c.Browsers))
	for _, name := range c.Browsers {
		b := browser.Browser(name)
		if !b.Valid() {
			return nil, fmt.Errorf("unknown browser %q", name)
		}
		browsers = append(browsers, b)
	}
	return browsers, nil
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %d", c.IntervalSeconds)
	}
	if c.Storage.SQLiteFile == "" {
		return fmt.Errorf("storage.sqlite_file must not be empty")
	}
	if _, err := c.EnabledBrowsers(); err != nil {
		return err
	}
	return nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
