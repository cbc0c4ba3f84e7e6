package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWorkflowCleanupTimeout     = "CUSTODIAN_WORKFLOW_CLEANUP_TIMEOUT"
	EnvWorkflowCleanupConcurrency = "CUSTODIAN_WORKFLOW_CLEANUP_CONCURRENCY"
)

// WorkflowConfig tunes the file deletions that follow committed document changes.
type WorkflowConfig struct {
	CleanupTimeout     string `toml:"cleanup_timeout"`
	CleanupConcurrency int    `toml:"cleanup_concurrency"`
}

// CleanupTimeoutDuration returns CleanupTimeout as a time.Duration.
func (c *WorkflowConfig) CleanupTimeoutDuration() time.Duration {
	return mustDuration(c.CleanupTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.CleanupTimeout != "" {
		c.CleanupTimeout = overlay.CleanupTimeout
	}
	if overlay.CleanupConcurrency != 0 {
		c.CleanupConcurrency = overlay.CleanupConcurrency
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.CleanupTimeout == "" {
		c.CleanupTimeout = "30s"
	}
	if c.CleanupConcurrency == 0 {
		c.CleanupConcurrency = 4
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowCleanupTimeout); v != "" {
		c.CleanupTimeout = v
	}
	if v := os.Getenv(EnvWorkflowCleanupConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CleanupConcurrency = n
		}
	}
}

func (c *WorkflowConfig) validate() error {
	if d, err := time.ParseDuration(c.CleanupTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid cleanup_timeout: %q", c.CleanupTimeout)
	}
	if c.CleanupConcurrency < 1 {
		return fmt.Errorf("cleanup_concurrency must be positive: %d", c.CleanupConcurrency)
	}
	return nil
}
