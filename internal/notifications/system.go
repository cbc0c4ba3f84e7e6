package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// System defines the inbox use cases of the notification domain.
type System interface {
	Handler() *Handler

	List(ctx context.Context, owner uuid.UUID, page pagination.PageRequest) (*Inbox, error)
	MarkRead(ctx context.Context, id, owner uuid.UUID) error
	MarkAllRead(ctx context.Context, owner uuid.UUID) (int64, error)
}

type repo struct {
	store      Store
	logger     *zap.Logger
	pagination pagination.Config
}

// New creates a notification System on db.
func New(db repository.Querier, logger *zap.Logger, pagination pagination.Config) System {
	return &repo{
		store:      NewStore(db),
		logger:     logger.With(zap.String("system", "notifications")),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, owner uuid.UUID, page pagination.PageRequest) (*Inbox, error) {
	page.Normalize(r.pagination)

	total, err := r.store.Count(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}

	unread, err := r.store.CountUnread(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	items, err := r.store.List(ctx, owner, page)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}

	return &Inbox{
		PageResult: pagination.NewPageResult(items, total, page.Page, page.Limit),
		Unread:     unread,
	}, nil
}

func (r *repo) MarkRead(ctx context.Context, id, owner uuid.UUID) error {
	return r.store.MarkRead(ctx, id, owner)
}

func (r *repo) MarkAllRead(ctx context.Context, owner uuid.UUID) (int64, error) {
	n, err := r.store.MarkAllRead(ctx, owner)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("notifications marked read", zap.Stringer("owner", owner), zap.Int64("count", n))
	return n, nil
}
