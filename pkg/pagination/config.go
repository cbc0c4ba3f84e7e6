// Package pagination turns list query parameters into bounded page requests
// and shapes paged responses.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds page sizes. DefaultLimit applies when a request names none.
type Config struct {
	DefaultLimit int `toml:"default_limit"`
	MaxLimit     int `toml:"max_limit"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	DefaultLimit string
	MaxLimit     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultLimit != 0 {
		c.DefaultLimit = overlay.DefaultLimit
	}
	if overlay.MaxLimit != 0 {
		c.MaxLimit = overlay.MaxLimit
	}
}

func (c *Config) loadDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	envInt(env.DefaultLimit, &c.DefaultLimit)
	envInt(env.MaxLimit, &c.MaxLimit)
}

// envInt overwrites dst with the integer value of the named variable when
// it is set and parses.
func envInt(name string, dst *int) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}

func (c *Config) validate() error {
	switch {
	case c.DefaultLimit < 1:
		return fmt.Errorf("default_limit must be positive: %d", c.DefaultLimit)
	case c.MaxLimit < 1:
		return fmt.Errorf("max_limit must be positive: %d", c.MaxLimit)
	case c.DefaultLimit > c.MaxLimit:
		return fmt.Errorf("default_limit %d exceeds max_limit %d", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}
