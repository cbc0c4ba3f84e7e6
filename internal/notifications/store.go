package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/query"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Store is the persistence contract for notifications. Every read and
// update is scoped to a single recipient.
type Store interface {
	Append(ctx context.Context, recipient uuid.UUID, message string) (*Notification, error)
	// List returns a page of the recipient's notifications, newest first.
	List(ctx context.Context, recipient uuid.UUID, page pagination.PageRequest) ([]Notification, error)
	Count(ctx context.Context, recipient uuid.UUID) (int, error)
	CountUnread(ctx context.Context, recipient uuid.UUID) (int, error)
	// MarkRead marks one notification read. Returns ErrNotFound unless the
	// notification exists and belongs to owner.
	MarkRead(ctx context.Context, id, owner uuid.UUID) error
	// MarkAllRead marks every unread notification of owner read and returns
	// how many changed.
	MarkAllRead(ctx context.Context, owner uuid.UUID) (int64, error)
}

var projection = query.
	NewProjectionMap("public", "notifications", "n").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("message", "Message").
	Project("is_read", "IsRead").
	Project("created_at", "CreatedAt")

var newestFirst = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var (
	appendSQL = fmt.Sprintf(`
		INSERT INTO public.notifications AS n (id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING %s`, projection.Columns())

	markReadSQL = `UPDATE public.notifications SET is_read = true WHERE id = $1 AND user_id = $2`

	markAllReadSQL = `UPDATE public.notifications SET is_read = true WHERE user_id = $1 AND is_read = false`
)

type store struct {
	db repository.Querier
}

// NewStore creates a Postgres-backed notification Store on db.
func NewStore(db repository.Querier) Store {
	return &store{db: db}
}

func (s *store) Append(ctx context.Context, recipient uuid.UUID, message string) (*Notification, error) {
	args := []any{uuid.New(), recipient, message}

	n, err := repository.QueryOne(ctx, s.db, appendSQL, args, scanNotification)
	if err != nil {
		return nil, mapError(err)
	}
	return &n, nil
}

func (s *store) List(ctx context.Context, recipient uuid.UUID, page pagination.PageRequest) ([]Notification, error) {
	q, args := query.
		NewBuilder(projection, newestFirst).
		WhereEquals("UserID", recipient).
		BuildPage(page.Page, page.Limit)

	items, err := repository.QueryMany(ctx, s.db, q, args, scanNotification)
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func (s *store) Count(ctx context.Context, recipient uuid.UUID) (int, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("UserID", recipient).
		BuildCount()
	return s.count(ctx, q, args)
}

func (s *store) CountUnread(ctx context.Context, recipient uuid.UUID) (int, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("UserID", recipient).
		WhereEquals("IsRead", false).
		BuildCount()
	return s.count(ctx, q, args)
}

func (s *store) MarkRead(ctx context.Context, id, owner uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, s.db, markReadSQL, id, owner); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *store) MarkAllRead(ctx context.Context, owner uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, markAllReadSQL, owner)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *store) count(ctx context.Context, q string, args []any) (int, error) {
	var total int
	if err := s.db.QueryRow(ctx, q, args...).Scan(&total); err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

func scanNotification(s repository.Scanner) (Notification, error) {
	var n Notification
	err := s.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	)
	return n, err
}
