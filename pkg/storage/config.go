package storage

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

const (
	BackendAzure = "azure"
	BackendLocal = "local"
)

// Config selects the storage backend and holds its connection parameters.
// The azure backend authenticates with ConnectionString when set and
// otherwise with the default Azure credential chain against AccountURL.
type Config struct {
	Backend          string `toml:"backend"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	LocalRoot        string `toml:"local_root"`
}

// overrides are read from the environment under the prefix given to
// Finalize, e.g. APP_STORAGE_BACKEND for prefix APP_STORAGE_.
type overrides struct {
	Backend          string `env:"BACKEND"`
	ContainerName    string `env:"CONTAINER_NAME"`
	ConnectionString string `env:"CONNECTION_STRING"`
	AccountURL       string `env:"ACCOUNT_URL"`
	LocalRoot        string `env:"LOCAL_ROOT"`
}

// Finalize applies defaults, environment overrides under envPrefix, and
// validation. An empty envPrefix skips the environment.
func (c *Config) Finalize(envPrefix string) error {
	if envPrefix != "" {
		var o overrides
		if err := env.ParseWithOptions(&o, env.Options{Prefix: envPrefix}); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
		c.Merge((*Config)(&o))
	}

	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
	if c.LocalRoot == "" {
		c.LocalRoot = "data/uploads"
	}
	return c.validate()
}

// Merge overwrites non-empty fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for _, f := range []struct{ dst, src *string }{
		{&c.Backend, &overlay.Backend},
		{&c.ContainerName, &overlay.ContainerName},
		{&c.ConnectionString, &overlay.ConnectionString},
		{&c.AccountURL, &overlay.AccountURL},
		{&c.LocalRoot, &overlay.LocalRoot},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendAzure:
		if c.ConnectionString != "" {
			return nil
		}
		if c.AccountURL == "" {
			return fmt.Errorf("connection_string or account_url required")
		}
		if u, err := url.Parse(c.AccountURL); err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid account_url: %q", c.AccountURL)
		}
	case BackendLocal:
	default:
		return fmt.Errorf("invalid backend: %s", c.Backend)
	}
	return nil
}
