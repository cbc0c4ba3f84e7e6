// Package database provides PostgreSQL connection pooling with lifecycle coordination.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/lifecycle"
)

// ErrNotReady indicates the startup ping did not reach the server.
var ErrNotReady = errors.New("database not ready")

// System manages the connection pool and lifecycle coordination.
type System interface {
	// Pool returns the underlying connection pool.
	Pool() *pgxpool.Pool
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	connTimeout time.Duration
}

// New creates a database system with the given configuration.
// The pool is configured but connections are verified only when Start runs.
func New(cfg *Config, logger *zap.Logger) (System, error) {
	connString, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetimeDuration()
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnTimeoutDuration()

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	return &database{
		pool:        pool,
		logger:      logger.With(zap.String("system", "database")),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Pool() *pgxpool.Pool {
	return d.pool
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection")

	lc.OnStartup("database", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, d.connTimeout)
		defer cancel()

		if err := d.pool.Ping(pingCtx); err != nil {
			d.logger.Error("database ping failed", zap.Error(err))
			return fmt.Errorf("%w: %v", ErrNotReady, err)
		}

		d.logger.Info("database connection established")
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.logger.Info("closing database connection")
		d.pool.Close()
		d.logger.Info("database connection closed")
	})

	return nil
}
