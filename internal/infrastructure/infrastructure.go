// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, identity) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/pkg/database"
	"github.com/JaimeStill/custodian/pkg/identity"
	"github.com/JaimeStill/custodian/pkg/lifecycle"
	"github.com/JaimeStill/custodian/pkg/logger"
	"github.com/JaimeStill/custodian/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage, and caller verification.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *zap.Logger
	Database  database.System
	Storage   storage.System
	Verifier  identity.Verifier
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
// In OIDC mode ctx bounds provider discovery.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	verifier, err := NewVerifier(ctx, &cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("identity init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    log,
		Database:  db,
		Storage:   store,
		Verifier:  verifier,
	}, nil
}

// NewVerifier builds the bearer token verifier selected by cfg.Mode.
func NewVerifier(ctx context.Context, cfg *config.AuthConfig) (identity.Verifier, error) {
	switch cfg.Mode {
	case config.AuthModeHMAC:
		return identity.NewHMACVerifier([]byte(cfg.Secret), cfg.Issuer, cfg.LeewayDuration())
	case config.AuthModeOIDC:
		return identity.NewOIDCVerifier(ctx, cfg.Issuer, cfg.ClientID, cfg.RoleClaim)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		_ = i.Logger.Sync()
	})
	return nil
}
