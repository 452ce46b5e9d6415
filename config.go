package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the operator-tunable defaults. Everything here can be
// overridden per-run by flags.
type Config struct {
	Backend  string    `yaml:"backend"`
	MaxCards int       `yaml:"max_cards"`
	Log      LogConfig `yaml:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// configDir overrides the default config directory for testing. When empty,
// ~/.config/kmsgrab is used.
var configDir string

func configPath() (string, error) {
	if env := os.Getenv("KMSGRAB_CONFIG"); env != "" {
		return env, nil
	}
	if configDir != "" {
		return filepath.Join(configDir, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kmsgrab", "config.yaml"), nil
}

// DefaultConfig returns the built-in defaults: DRM backend, a 16-card scan
// bound, info-level logging.
func DefaultConfig() *Config {
	return &Config{
		Backend:  backendDRM,
		MaxCards: 16,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML config file. A missing file is not an error;
// the defaults apply. Fields absent from the file keep their defaults.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Backend {
	case backendAuto, backendDRM, backendPortal, backendX11:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxCards < 1 {
		return fmt.Errorf("max_cards must be at least 1, got %d", c.MaxCards)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
