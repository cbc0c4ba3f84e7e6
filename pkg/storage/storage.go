// Package storage provides file storage operations with Azure Blob Storage
// and local filesystem implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/lifecycle"
)

var (
	// ErrNotFound indicates no file exists at the key.
	ErrNotFound = errors.New("file not found")
	// ErrEmptyKey indicates an empty storage key.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates a key with a ".." segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// System manages file storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that prepares the backing store.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the file at the given key. The caller must close the reader.
	// Returns ErrNotFound if the file does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the file at the given key. Returns ErrNotFound if the file does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a file exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates a storage system for the configured backend.
// Backends do not touch the network or disk until Start is called.
func New(cfg *Config, logger *zap.Logger) (System, error) {
	logger = logger.With(zap.String("system", "storage"), zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case BackendAzure:
		return newAzure(cfg, logger)
	case BackendLocal:
		return newLocal(cfg.LocalRoot, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
