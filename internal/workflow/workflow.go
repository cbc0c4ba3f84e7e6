// Package workflow implements the document lifecycle and permission-request
// state machine: uploads, privileged and approval-gated replacement and
// deletion, and administrator resolution of pending requests.
//
// Every multi-step operation runs inside one Store transaction. Files are
// stored by the caller before an operation starts; on failure the engine
// discards the file it was handed, and destructive file deletions run only
// after the transaction has committed.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/errs"
	"github.com/JaimeStill/custodian/internal/permissions"
	"github.com/JaimeStill/custodian/pkg/identity"
	"github.com/JaimeStill/custodian/pkg/storage"
)

const tracerName = "github.com/JaimeStill/custodian/internal/workflow"

// Domain errors raised by the engine itself.
var (
	ErrDocumentLocked = errs.Conflict("document locked")
	ErrForbidden      = errs.Forbidden("privileged role required")
	ErrTitleRequired  = errs.Validation("title is required")
	ErrFileRequired   = errs.Validation("file is required")
	ErrUnexpectedFile = errs.Validation("delete requests do not accept a file")
	ErrUnknownRole    = errs.Forbidden("unknown role")
)

// System defines the workflow use cases.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// Upload creates an ACTIVE document at version 1 pointing at cmd.File.
	Upload(ctx context.Context, caller identity.Caller, cmd UploadCommand) (*documents.Document, error)
	// RequestReplace replaces the document's file immediately for privileged
	// callers and opens a PENDING request otherwise.
	RequestReplace(ctx context.Context, caller identity.Caller, documentID uuid.UUID, file documents.File) (*Outcome, error)
	// RequestDelete deletes the document immediately for privileged callers
	// and opens a PENDING request otherwise. A non-nil file is rejected.
	RequestDelete(ctx context.Context, caller identity.Caller, documentID uuid.UUID, file *documents.File) (*Outcome, error)
	// Request validates a generic action request and dispatches it.
	Request(ctx context.Context, caller identity.Caller, cmd RequestCommand) (*Outcome, error)
	// Approve applies a PENDING request and notifies its requester.
	Approve(ctx context.Context, caller identity.Caller, requestID uuid.UUID) (*permissions.Request, error)
	// Reject discards a PENDING request and notifies its requester.
	Reject(ctx context.Context, caller identity.Caller, requestID uuid.UUID) (*permissions.Request, error)
	// ListPending returns every PENDING request, oldest first.
	ListPending(ctx context.Context, caller identity.Caller) ([]permissions.Pending, error)
	// Find returns a request visible to caller: its requester or a privileged caller.
	Find(ctx context.Context, caller identity.Caller, requestID uuid.UUID) (*permissions.Request, error)
	// PendingRequest returns the PENDING request on a document, with the
	// same visibility as Find.
	PendingRequest(ctx context.Context, caller identity.Caller, documentID uuid.UUID) (*permissions.Request, error)
}

// UploadCommand carries the input of Upload. File refers to an already stored file.
type UploadCommand struct {
	Title        string
	Description  *string
	DocumentType *string
	File         documents.File
}

// RequestCommand carries the input of Request. File is required for REPLACE
// and must be nil for DELETE.
type RequestCommand struct {
	DocumentID uuid.UUID
	Action     permissions.Action
	File       *documents.File
}

// Outcome reports the effect of a replace or delete request. Applied is true
// when a privileged caller's change took effect immediately; otherwise
// Request holds the PENDING request that was opened.
type Outcome struct {
	Applied    bool                 `json:"applied"`
	DocumentID uuid.UUID            `json:"document_id"`
	Document   *documents.Document  `json:"document,omitempty"`
	Request    *permissions.Request `json:"request,omitempty"`
}

// Option configures the engine.
type Option func(*engine)

// WithClock overrides the clock used for resolution timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		e.now = now
	}
}

// WithCleanup sets the timeout and concurrency of file deletions that run
// outside a request's lifetime.
func WithCleanup(timeout time.Duration, concurrency int) Option {
	return func(e *engine) {
		if timeout > 0 {
			e.cleanupTimeout = timeout
		}
		if concurrency > 0 {
			e.cleanupConcurrency = concurrency
		}
	}
}

type engine struct {
	store  Store
	files  storage.System
	logger *zap.Logger

	now                func() time.Time
	cleanupTimeout     time.Duration
	cleanupConcurrency int
}

// New creates the workflow System.
func New(store Store, files storage.System, logger *zap.Logger, opts ...Option) System {
	e := &engine{
		store:              store,
		files:              files,
		logger:             logger.With(zap.String("system", "workflow")),
		now:                time.Now,
		cleanupTimeout:     30 * time.Second,
		cleanupConcurrency: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engine) Handler(maxUploadSize int64) *Handler {
	return NewHandler(e, e.files, e.logger, maxUploadSize)
}

var tracer = otel.Tracer(tracerName)
