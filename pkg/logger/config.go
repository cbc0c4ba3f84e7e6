package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds log level and output format.
type Config struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Level  string
	Format string
}

// Finalize applies defaults, environment variable overrides, and validation.
// The default format follows the deployment environment: json in production,
// console everywhere else.
func (c *Config) Finalize(environment string, env *Env) error {
	c.loadDefaults(environment)
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func (c *Config) loadDefaults(environment string) {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		if environment == "production" {
			c.Format = FormatJSON
		} else {
			c.Format = FormatConsole
		}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Level != "" {
		if v := os.Getenv(env.Level); v != "" {
			c.Level = v
		}
	}
	if env.Format != "" {
		if v := os.Getenv(env.Format); v != "" {
			c.Format = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if c.Format != FormatJSON && c.Format != FormatConsole {
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	return nil
}
