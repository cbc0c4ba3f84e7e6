package permissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/custodian/pkg/query"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Store is the persistence contract for permission requests.
type Store interface {
	Find(ctx context.Context, id uuid.UUID) (*Request, error)
	// FindPendingForUpdate loads a PENDING request and locks its row until the
	// enclosing transaction ends. Returns ErrNotFound when the request does
	// not exist or is already resolved.
	FindPendingForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	// FindPendingByDocument returns the PENDING request for a document or ErrNotFound.
	FindPendingByDocument(ctx context.Context, documentID uuid.UUID) (*Request, error)
	// Insert creates a PENDING request. Returns ErrPendingExists when the
	// document already has one.
	Insert(ctx context.Context, req NewRequest) (*Request, error)
	// MarkResolved moves a PENDING request to status. Returns ErrNotFound
	// when the request is missing or no longer PENDING.
	MarkResolved(ctx context.Context, id uuid.UUID, status Status, resolver uuid.UUID, at time.Time) (*Request, error)
	// DeleteByDocument removes every request of a document and returns the removed rows.
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) ([]Request, error)
	// ListPending returns every PENDING request with its document title, oldest first.
	ListPending(ctx context.Context) ([]Pending, error)
}

var (
	insertRequestSQL = fmt.Sprintf(`
		INSERT INTO public.permission_requests AS r (id, document_id, requested_by, action, new_file_ref, new_file_name, new_content_type, new_size_bytes, new_page_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, projection.Columns())

	markResolvedSQL = fmt.Sprintf(`
		UPDATE public.permission_requests AS r
		SET status = $2, resolved_by = $3, resolved_at = $4
		WHERE r.id = $1 AND r.status = 'PENDING'
		RETURNING %s`, projection.Columns())

	deleteByDocumentSQL = fmt.Sprintf(`
		DELETE FROM public.permission_requests AS r
		WHERE r.document_id = $1
		RETURNING %s`, projection.Columns())
)

type store struct {
	db repository.Querier
}

// NewStore creates a Postgres-backed permission request Store on db.
func NewStore(db repository.Querier) Store {
	return &store{db: db}
}

func (s *store) Find(ctx context.Context, id uuid.UUID) (*Request, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	r, err := repository.QueryOne(ctx, s.db, q, args, scanRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func (s *store) FindPendingForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ID", id).
		WhereEquals("Status", StatusPending).
		ForUpdate().
		BuildSingleOrNull()

	r, err := repository.QueryOne(ctx, s.db, q, args, scanRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func (s *store) FindPendingByDocument(ctx context.Context, documentID uuid.UUID) (*Request, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("DocumentID", documentID).
		WhereEquals("Status", StatusPending).
		BuildSingleOrNull()

	r, err := repository.QueryOne(ctx, s.db, q, args, scanRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func (s *store) Insert(ctx context.Context, req NewRequest) (*Request, error) {
	args := append(
		[]any{uuid.New(), req.DocumentID, req.RequestedBy, req.Action},
		fileArgs(req.NewFile)...,
	)

	r, err := repository.QueryOne(ctx, s.db, insertRequestSQL, args, scanRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func (s *store) MarkResolved(
	ctx context.Context,
	id uuid.UUID,
	status Status,
	resolver uuid.UUID,
	at time.Time,
) (*Request, error) {
	args := []any{id, status, resolver, at}

	r, err := repository.QueryOne(ctx, s.db, markResolvedSQL, args, scanRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

func (s *store) DeleteByDocument(ctx context.Context, documentID uuid.UUID) ([]Request, error) {
	removed, err := repository.QueryMany(ctx, s.db, deleteByDocumentSQL, []any{documentID}, scanRequest)
	if err != nil {
		return nil, mapError(err)
	}
	return removed, nil
}

func (s *store) ListPending(ctx context.Context) ([]Pending, error) {
	q, args := query.
		NewBuilder(pendingProjection, oldestFirst).
		WhereEquals("Status", StatusPending).
		Build()

	pending, err := repository.QueryMany(ctx, s.db, q, args, scanPending)
	if err != nil {
		return nil, mapError(err)
	}
	return pending, nil
}
