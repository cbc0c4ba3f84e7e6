package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/JaimeStill/custodian/pkg/formatting"
	"github.com/JaimeStill/custodian/pkg/middleware"
	"github.com/JaimeStill/custodian/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CUSTODIAN_CORS_ENABLED",
	Origins:          "CUSTODIAN_CORS_ORIGINS",
	AllowedMethods:   "CUSTODIAN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CUSTODIAN_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "CUSTODIAN_CORS_EXPOSED_HEADERS",
	AllowCredentials: "CUSTODIAN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CUSTODIAN_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultLimit: "CUSTODIAN_PAGINATION_DEFAULT_LIMIT",
	MaxLimit:     "CUSTODIAN_PAGINATION_MAX_LIMIT",
}

// APIConfig holds API routing, upload limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

type apiEnv struct {
	BasePath      *string `env:"CUSTODIAN_API_BASE_PATH"`
	MaxUploadSize *string `env:"CUSTODIAN_API_MAX_UPLOAD_SIZE"`
}

const defaultMaxUploadSize = "50MB"

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		size, _ = formatting.ParseBytes(defaultMaxUploadSize)
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	defaultString(&c.BasePath, "/api")
	defaultString(&c.MaxUploadSize, defaultMaxUploadSize)

	var e apiEnv
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	assign(&c.BasePath, e.BasePath)
	assign(&c.MaxUploadSize, e.MaxUploadSize)

	if !strings.HasPrefix(c.BasePath, "/") || strings.TrimRight(c.BasePath, "/") == "" {
		return fmt.Errorf("invalid base_path: %q", c.BasePath)
	}
	if n, err := formatting.ParseBytes(c.MaxUploadSize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_upload_size: %q", c.MaxUploadSize)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
