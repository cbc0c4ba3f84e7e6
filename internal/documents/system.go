package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// System defines the read-side contract for the document domain.
// Mutations go through the workflow engine.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	// Find returns the document and its version history.
	Find(ctx context.Context, id uuid.UUID) (*Detail, error)
}

type repo struct {
	store      Store
	logger     *zap.Logger
	pagination pagination.Config
}

// New creates a document System reading through db.
func New(db repository.Querier, logger *zap.Logger, pagination pagination.Config) System {
	return &repo{
		store:      NewStore(db),
		logger:     logger.With(zap.String("system", "documents")),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	total, err := r.store.Count(ctx, page, filters)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	docs, err := r.store.List(ctx, page, filters)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.Limit)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Detail, error) {
	doc, err := r.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	versions, err := r.store.Versions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}

	return &Detail{
		Document: *doc,
		Versions: versions,
	}, nil
}
