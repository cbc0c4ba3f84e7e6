// Package notifications implements the per-user notification inbox.
package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/repository"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox is a page of a user's notifications plus their unread total.
type Inbox struct {
	pagination.PageResult[Notification]
	Unread int `json:"unread"`
}

// MarkAllResult reports how many notifications MarkAllRead changed.
type MarkAllResult struct {
	Updated int64 `json:"updated"`
}

// Domain errors for notification operations.
var (
	ErrNotFound  = errs.NotFound("notification not found")
	ErrDuplicate = errs.Conflict("notification already exists")
	ErrInvalidID = errs.Validation("invalid notification id")
)

func mapError(err error) error {
	return errs.Persist(repository.MapError(err, ErrNotFound, ErrDuplicate))
}
