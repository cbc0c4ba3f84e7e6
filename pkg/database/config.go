package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/xo/dburl"
)

// Config holds PostgreSQL connection parameters. When URL is set it takes
// precedence over the discrete host, port, and credential fields.
type Config struct {
	URL             string `toml:"url"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxConns        int32  `toml:"max_conns"`
	MinConns        int32  `toml:"min_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// overrides are read from the environment under the prefix given to
// Finalize, e.g. APP_DB_HOST for prefix APP_DB_.
type overrides struct {
	URL             *string `env:"URL"`
	Host            *string `env:"HOST"`
	Port            *int    `env:"PORT"`
	Name            *string `env:"NAME"`
	User            *string `env:"USER"`
	Password        *string `env:"PASSWORD"`
	SSLMode         *string `env:"SSL_MODE"`
	MaxConns        *int32  `env:"MAX_CONNS"`
	MinConns        *int32  `env:"MIN_CONNS"`
	ConnMaxLifetime *string `env:"CONN_MAX_LIFETIME"`
	ConnTimeout     *string `env:"CONN_TIMEOUT"`
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// ConnString returns the connection string handed to pgx.
func (c *Config) ConnString() (string, error) {
	if c.URL != "" {
		u, err := dburl.Parse(c.URL)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}
		if u.Driver != "postgres" {
			return "", fmt.Errorf("unsupported database driver: %s", u.Driver)
		}
		return u.DSN, nil
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String(), nil
}

// Finalize applies defaults, environment overrides under envPrefix, and
// validation. An empty envPrefix skips the environment.
func (c *Config) Finalize(envPrefix string) error {
	c.loadDefaults()
	if envPrefix != "" {
		if err := c.loadEnv(envPrefix); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	merge(&c.URL, overlay.URL)
	merge(&c.Host, overlay.Host)
	merge(&c.Port, overlay.Port)
	merge(&c.Name, overlay.Name)
	merge(&c.User, overlay.User)
	merge(&c.Password, overlay.Password)
	merge(&c.SSLMode, overlay.SSLMode)
	merge(&c.MaxConns, overlay.MaxConns)
	merge(&c.MinConns, overlay.MinConns)
	merge(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	merge(&c.ConnTimeout, overlay.ConnTimeout)
}

func (c *Config) loadDefaults() {
	orDefault(&c.Host, "localhost")
	orDefault(&c.Port, 5432)
	orDefault(&c.SSLMode, "disable")
	orDefault(&c.MaxConns, 25)
	orDefault(&c.MinConns, 2)
	orDefault(&c.ConnMaxLifetime, "15m")
	orDefault(&c.ConnTimeout, "5s")
}

func (c *Config) loadEnv(prefix string) error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	set(&c.URL, o.URL)
	set(&c.Host, o.Host)
	set(&c.Port, o.Port)
	set(&c.Name, o.Name)
	set(&c.User, o.User)
	set(&c.Password, o.Password)
	set(&c.SSLMode, o.SSLMode)
	set(&c.MaxConns, o.MaxConns)
	set(&c.MinConns, o.MinConns)
	set(&c.ConnMaxLifetime, o.ConnMaxLifetime)
	set(&c.ConnTimeout, o.ConnTimeout)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func merge[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func orDefault[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.URL != "" {
		if _, err := c.ConnString(); err != nil {
			return err
		}
	} else {
		if c.Name == "" {
			return fmt.Errorf("name required")
		}
		if c.User == "" {
			return fmt.Errorf("user required")
		}
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min_conns cannot exceed max_conns")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	return nil
}
