// Package config loads service configuration from config.toml, an optional
// per-environment overlay, and CUSTODIAN_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/custodian/pkg/database"
	"github.com/JaimeStill/custodian/pkg/logger"
	"github.com/JaimeStill/custodian/pkg/storage"
	"github.com/JaimeStill/custodian/pkg/telemetry"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCustodianEnv = "CUSTODIAN_ENV"

	databaseEnvPrefix = "CUSTODIAN_DB_"
	storageEnvPrefix  = "CUSTODIAN_STORAGE_"
)

var loggingEnv = &logger.Env{
	Level:  "CUSTODIAN_LOG_LEVEL",
	Format: "CUSTODIAN_LOG_FORMAT",
}

// Config is the root configuration for the Custodian service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Auth            AuthConfig       `toml:"auth"`
	Workflow        WorkflowConfig   `toml:"workflow"`
	Logging         logger.Config    `toml:"logging"`
	Telemetry       telemetry.Config `toml:"telemetry"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

type rootEnv struct {
	ShutdownTimeout *string `env:"CUSTODIAN_SHUTDOWN_TIMEOUT"`
	Version         *string `env:"CUSTODIAN_VERSION"`
}

// Env returns the deployment environment named by CUSTODIAN_ENV, or "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCustodianEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Load builds the configuration. Both files are optional; without them
// defaults and environment variables supply every value.
func Load() (*Config, error) {
	cfg, err := readFile(BaseConfigFile)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	if name := os.Getenv(EnvCustodianEnv); name != "" {
		path := fmt.Sprintf(OverlayConfigPattern, name)
		overlay, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		if overlay != nil {
			cfg.Merge(overlay)
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Workflow.Merge(&overlay.Workflow)
	c.Logging.Merge(&overlay.Logging)
	c.Telemetry.Merge(&overlay.Telemetry)
}

func (c *Config) finalize() error {
	defaultString(&c.ShutdownTimeout, "30s")
	defaultString(&c.Version, "0.1.0")

	var e rootEnv
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	assign(&c.ShutdownTimeout, e.ShutdownTimeout)
	assign(&c.Version, e.Version)

	if d, err := time.ParseDuration(c.ShutdownTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid shutdown_timeout: %q", c.ShutdownTimeout)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnvPrefix) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnvPrefix) }},
		{"api", c.API.Finalize},
		{"auth", c.Auth.Finalize},
		{"workflow", c.Workflow.Finalize},
		{"logging", func() error { return c.Logging.Finalize(c.Env(), loggingEnv) }},
		{"telemetry", func() error { return finalizeTelemetry(&c.Telemetry) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// readFile decodes the TOML file at path. A missing file yields nil, nil.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
