// Package config loads bridge configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"brpbridge/internal/brp"
)

// Config holds all brpbridge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// BRP connection settings
	BRP BRPConfig `yaml:"brp"`

	// Format discovery settings
	Discovery DiscoveryConfig `yaml:"discovery"`

	// App log handling
	Logs LogsConfig `yaml:"logs"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BRPConfig configures the connection to the Bevy app.
type BRPConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Timeout string `yaml:"timeout"`
}

// DiscoveryConfig configures the format discovery engine.
type DiscoveryConfig struct {
	// Enabled routes mutations through format discovery. When false,
	// failed calls return as-is with no repair retry.
	Enabled bool `yaml:"enabled"`
	// Debug attaches the discovery trail to every response.
	Debug bool `yaml:"debug"`
}

// LogsConfig configures where app logs are found and how long they are
// kept.
type LogsConfig struct {
	Dir    string `yaml:"dir"`
	MaxAge string `yaml:"max_age"`
}

// LoggingConfig configures the bridge's own logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "brpbridge",
		Version: "1.0.0",

		BRP: BRPConfig{
			Host:    "localhost",
			Port:    brp.DefaultPort,
			Timeout: "30s",
		},

		Discovery: DiscoveryConfig{
			Enabled: true,
			Debug:   false,
		},

		Logs: LogsConfig{
			Dir:    defaultLogDir(),
			MaxAge: "24h",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultLogDir() string {
	return filepath.Join(os.TempDir(), "brpbridge")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("BRP_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			c.BRP.Port = n
		}
	}
	if host := os.Getenv("BRP_HOST"); host != "" {
		c.BRP.Host = host
	}
	if dir := os.Getenv("BRPBRIDGE_LOG_DIR"); dir != "" {
		c.Logs.Dir = dir
	}
	if debug := os.Getenv("BRPBRIDGE_DEBUG"); debug != "" {
		if b, err := strconv.ParseBool(debug); err == nil {
			c.Discovery.Debug = b
		}
	}
	if level := os.Getenv("BRPBRIDGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetBRPTimeout returns the BRP request timeout as a duration.
func (c *Config) GetBRPTimeout() time.Duration {
	d, err := time.ParseDuration(c.BRP.Timeout)
	if err != nil {
		return brp.DefaultTimeout
	}
	return d
}

// GetLogMaxAge returns how long app logs are kept before cleanup.
func (c *Config) GetLogMaxAge() time.Duration {
	d, err := time.ParseDuration(c.Logs.MaxAge)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
