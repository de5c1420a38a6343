package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/focus/pkg/gateway"
	"github.com/harrisonrobin/focus/pkg/skiplimit"
)

const (
	xdgAppName = "focus"
	configFile = "config.json"
	tasksFile  = "tasks.yaml"
)

// Backends.
const (
	BackendGoogle      = "google"
	BackendTaskwarrior = "taskwarrior"
	BackendLocal       = "local"
)

type Config struct {
	Backend           string   `json:"backend"`
	MaxSkipsPerDay    int      `json:"max_skips_per_day"`
	LocalPath         string   `json:"local_path,omitempty"`
	TaskwarriorFilter []string `json:"taskwarrior_filter,omitempty"`
}

// Dir is where every file the app keeps lives.
func Dir() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, falling back to defaults when the file
// does not exist.
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// Validate rejects settings the app cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGoogle, BackendTaskwarrior, BackendLocal:
	default:
		return fmt.Errorf("%w: unknown backend %q", gateway.ErrValidation, c.Backend)
	}
	if c.MaxSkipsPerDay <= 0 {
		return fmt.Errorf("%w: max_skips_per_day must be positive, got %d", gateway.ErrValidation, c.MaxSkipsPerDay)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGoogle
	}
	if c.MaxSkipsPerDay == 0 {
		c.MaxSkipsPerDay = skiplimit.DefaultMaxSkipsPerDay
	}
	if c.LocalPath == "" {
		if dir, err := Dir(); err == nil {
			c.LocalPath = filepath.Join(dir, tasksFile)
		}
	}
}
