package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Bearer token verification modes.
const (
	AuthModeHMAC = "hmac"
	AuthModeOIDC = "oidc"
)

const minSecretLength = 32

// AuthConfig selects how bearer tokens are verified.
// HMAC mode verifies HS256 tokens signed with Secret. OIDC mode verifies
// tokens issued by Issuer for ClientID against the provider's published keys.
type AuthConfig struct {
	Mode      string `toml:"mode"`
	Secret    string `toml:"secret"`
	Issuer    string `toml:"issuer"`
	ClientID  string `toml:"client_id"`
	RoleClaim string `toml:"role_claim"`
	Leeway    string `toml:"leeway"`
}

type authEnv struct {
	Mode      *string `env:"CUSTODIAN_AUTH_MODE"`
	Secret    *string `env:"CUSTODIAN_AUTH_SECRET"`
	Issuer    *string `env:"CUSTODIAN_AUTH_ISSUER"`
	ClientID  *string `env:"CUSTODIAN_AUTH_CLIENT_ID"`
	RoleClaim *string `env:"CUSTODIAN_AUTH_ROLE_CLAIM"`
	Leeway    *string `env:"CUSTODIAN_AUTH_LEEWAY"`
}

// LeewayDuration returns Leeway as a time.Duration.
func (c *AuthConfig) LeewayDuration() time.Duration {
	return mustDuration(c.Leeway)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.RoleClaim != "" {
		c.RoleClaim = overlay.RoleClaim
	}
	if overlay.Leeway != "" {
		c.Leeway = overlay.Leeway
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = AuthModeHMAC
	}
	if c.RoleClaim == "" {
		c.RoleClaim = "role"
	}
	if c.Leeway == "" {
		c.Leeway = "30s"
	}
}

func (c *AuthConfig) loadEnv() error {
	var e authEnv
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	assign(&c.Mode, e.Mode)
	assign(&c.Secret, e.Secret)
	assign(&c.Issuer, e.Issuer)
	assign(&c.ClientID, e.ClientID)
	assign(&c.RoleClaim, e.RoleClaim)
	assign(&c.Leeway, e.Leeway)
	return nil
}

func (c *AuthConfig) validate() error {
	if _, err := time.ParseDuration(c.Leeway); err != nil {
		return fmt.Errorf("invalid leeway: %w", err)
	}

	switch c.Mode {
	case AuthModeHMAC:
		if len(c.Secret) < minSecretLength {
			return fmt.Errorf("secret must be at least %d bytes", minSecretLength)
		}
	case AuthModeOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("issuer required for oidc mode")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id required for oidc mode")
		}
	default:
		return fmt.Errorf("unsupported mode: %s", c.Mode)
	}
	return nil
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
