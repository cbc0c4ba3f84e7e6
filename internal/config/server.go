package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds HTTP listener settings. Durations are Go duration
// strings so they read naturally in TOML.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

type serverEnv struct {
	Host              *string `env:"CUSTODIAN_SERVER_HOST"`
	Port              *int    `env:"CUSTODIAN_SERVER_PORT"`
	ReadTimeout       *string `env:"CUSTODIAN_SERVER_READ_TIMEOUT"`
	ReadHeaderTimeout *string `env:"CUSTODIAN_SERVER_READ_HEADER_TIMEOUT"`
	WriteTimeout      *string `env:"CUSTODIAN_SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout   *string `env:"CUSTODIAN_SERVER_SHUTDOWN_TIMEOUT"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

// ReadHeaderTimeoutDuration returns ReadHeaderTimeout as a time.Duration.
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.ReadHeaderTimeout)
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration. Uploads
// stream through the handler, so this bounds the largest transfer.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range []struct{ dst, src *string }{
		{&c.ReadTimeout, &overlay.ReadTimeout},
		{&c.ReadHeaderTimeout, &overlay.ReadHeaderTimeout},
		{&c.WriteTimeout, &overlay.WriteTimeout},
		{&c.ShutdownTimeout, &overlay.ShutdownTimeout},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	defaultString(&c.Host, "0.0.0.0")
	if c.Port == 0 {
		c.Port = 8080
	}
	defaultString(&c.ReadTimeout, "1m")
	defaultString(&c.ReadHeaderTimeout, "10s")
	defaultString(&c.WriteTimeout, "15m")
	defaultString(&c.ShutdownTimeout, "30s")
}

func (c *ServerConfig) loadEnv() error {
	var e serverEnv
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	assign(&c.Host, e.Host)
	assign(&c.Port, e.Port)
	assign(&c.ReadTimeout, e.ReadTimeout)
	assign(&c.ReadHeaderTimeout, e.ReadHeaderTimeout)
	assign(&c.WriteTimeout, e.WriteTimeout)
	assign(&c.ShutdownTimeout, e.ShutdownTimeout)
	return nil
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	for name, v := range map[string]string{
		"read_timeout":        c.ReadTimeout,
		"read_header_timeout": c.ReadHeaderTimeout,
		"write_timeout":       c.WriteTimeout,
		"shutdown_timeout":    c.ShutdownTimeout,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	return nil
}

func defaultString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// mustDuration parses a duration that validate has already accepted.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
