package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/lifecycle"
)

type local struct {
	root   string
	logger *zap.Logger
}

// NewLocal creates a filesystem-backed System rooted at root. Keys map to
// slash-separated paths below the root.
func NewLocal(root string, logger *zap.Logger) System {
	return newLocal(root, logger.With(zap.String("system", "storage"), zap.String("backend", BackendLocal)))
}

func newLocal(root string, logger *zap.Logger) *local {
	return &local{
		root:   root,
		logger: logger,
	}
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system")

	lc.OnStartup("storage", func(context.Context) error {
		if err := os.MkdirAll(l.root, 0o755); err != nil {
			l.logger.Error("storage root initialization failed", zap.Error(err))
			return err
		}

		l.logger.Info("storage root ready", zap.String("root", l.root))
		return nil
	})

	return nil
}

func (l *local) Upload(ctx context.Context, key string, reader io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := l.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create file %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("write file %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit file %s: %w", key, err)
	}

	return nil
}

func (l *local) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open file %s: %w", key, err)
	}

	return f, nil
}

func (l *local) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := l.path(key)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete file %s: %w", key, err)
	}

	_ = os.Remove(filepath.Dir(path)) // succeeds only when the directory is empty
	return nil
}

func (l *local) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("check file existence %s: %w", key, err)
}

func (l *local) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}
