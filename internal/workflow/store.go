package workflow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/internal/notifications"
	"github.com/JaimeStill/custodian/internal/permissions"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Store runs units of work atomically.
type Store interface {
	// Atomic runs fn in a transaction. Every change fn makes through tx is
	// committed when fn returns nil and discarded otherwise.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Documents() documents.Store
	Permissions() permissions.Store
	Notifications() notifications.Store
}

type pgStore struct {
	db repository.Beginner
}

// NewStore creates a Postgres-backed Store on db.
func NewStore(db repository.Beginner) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	_, err := repository.WithTx(ctx, s.db, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(pgTx{
			documents:     documents.NewStore(tx),
			permissions:   permissions.NewStore(tx),
			notifications: notifications.NewStore(tx),
		})
	})
	return errs.Persist(err)
}

type pgTx struct {
	documents     documents.Store
	permissions   permissions.Store
	notifications notifications.Store
}

func (t pgTx) Documents() documents.Store         { return t.documents }
func (t pgTx) Permissions() permissions.Store     { return t.permissions }
func (t pgTx) Notifications() notifications.Store { return t.notifications }
