// Package config loads icmsf settings from a YAML file with environment
// overrides.
//
//	store: ~/.config/icmsf/profiles.db
//	export_dir: .
//	log_level: warn
//	conflict: ask
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	appDir     = "icmsf"
	configFile = "config.yaml"
	storeFile  = "profiles.db"

	EnvConfig    = "ICMSF_CONFIG"
	EnvStore     = "ICMSF_STORE"
	EnvExportDir = "ICMSF_EXPORT_DIR"
	EnvLogLevel  = "ICMSF_LOG_LEVEL"
)

// Conflict policies accepted in the conflict field.
const (
	ConflictAsk         = "ask"
	ConflictKeepLocal   = "keep-local"
	ConflictUseImported = "use-imported"
	ConflictKeepBoth    = "keep-both"
	ConflictAbort       = "abort"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrConfigExists  = errors.New("config file already exists")
)

// Config holds user settings.
type Config struct {
	Store     string `yaml:"store"`
	ExportDir string `yaml:"export_dir"`
	LogLevel  string `yaml:"log_level"`
	Conflict  string `yaml:"conflict"`
}

// Default returns settings used when no file or variable overrides them.
func Default() *Config {
	return &Config{
		Store:     filepath.Join(baseDir(), storeFile),
		ExportDir: ".",
		LogLevel:  "warn",
		Conflict:  ConflictAsk,
	}
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appDir
	}
	return filepath.Join(dir, appDir)
}

// DefaultPath returns the config file location, honoring ICMSF_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(baseDir(), configFile)
}

// Load reads the file at path over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvStore); v != "" {
		c.Store = v
	}
	if v := getenv(EnvExportDir); v != "" {
		c.ExportDir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Store == "" {
		return fmt.Errorf("%w: store path is empty", ErrInvalidConfig)
	}
	switch c.Conflict {
	case "", ConflictAsk, ConflictKeepLocal, ConflictUseImported, ConflictKeepBoth, ConflictAbort:
	default:
		return fmt.Errorf("%w: unknown conflict policy %q", ErrInvalidConfig, c.Conflict)
	}
	return nil
}

// Save writes c to path as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// WriteDefault writes the default settings to path. An existing file is kept
// unless force is set.
func WriteDefault(path string, force bool) (*Config, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	cfg := Default()
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode returns c as YAML.
func (c *Config) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}
