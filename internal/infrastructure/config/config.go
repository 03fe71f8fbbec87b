package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Desktop   DesktopConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// DesktopConfig holds desktop windowing configuration.
type DesktopConfig struct {
	// MaxTaskLimit caps concurrently unminimized freeform tasks per display.
	MaxTaskLimit int `envconfig:"DESKTOP_MAX_TASK_LIMIT" default:"6"`
	// OverridesFile optionally points at a YAML file whose values take
	// precedence over the environment.
	OverridesFile string `envconfig:"DESKTOP_CONFIG_FILE" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SessionConfig holds session snapshot configuration.
type SessionConfig struct {
	Dir string `envconfig:"SESSION_DIR" default:"/tmp/desktopd/sessions"`
}

// Overrides mirrors the YAML overrides file. Zero values leave the
// environment-derived setting untouched.
type Overrides struct {
	MaxTaskLimit int    `yaml:"max_task_limit"`
	LogLevel     string `yaml:"log_level"`
	Port         string `yaml:"port"`
	SessionDir   string `yaml:"session_dir"`
}

// Load loads configuration from environment variables, then applies the
// overrides file when one is configured.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Desktop.OverridesFile != "" {
		if err := cfg.applyOverrides(cfg.Desktop.OverridesFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Desktop.MaxTaskLimit < 1 {
		return fmt.Errorf("desktop max task limit must be at least 1, got %d", c.Desktop.MaxTaskLimit)
	}
	if c.RateLimit.RequestsPerSecond < 1 {
		return fmt.Errorf("rate limit rps must be at least 1, got %d", c.RateLimit.RequestsPerSecond)
	}
	return nil
}

func (c *Config) applyOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read overrides file: %w", err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("failed to parse overrides file: %w", err)
	}

	if o.MaxTaskLimit != 0 {
		c.Desktop.MaxTaskLimit = o.MaxTaskLimit
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.Port != "" {
		c.Server.Port = o.Port
	}
	if o.SessionDir != "" {
		c.Session.Dir = o.SessionDir
	}
	return nil
}

// Address returns the full server address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}
