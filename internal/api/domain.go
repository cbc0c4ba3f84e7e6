package api

import (
	"github.com/JaimeStill/custodian/internal/documents"
	"github.com/JaimeStill/custodian/internal/notifications"
	"github.com/JaimeStill/custodian/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents     documents.System
	Notifications notifications.System
	Workflow      workflow.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	pool := runtime.Database.Pool()

	docsSystem := documents.New(
		pool,
		runtime.Logger,
		runtime.Pagination,
	)

	notificationsSystem := notifications.New(
		pool,
		runtime.Logger,
		runtime.Pagination,
	)

	workflowSystem := workflow.New(
		workflow.NewStore(pool),
		runtime.Storage,
		runtime.Logger,
		workflow.WithCleanup(
			runtime.Workflow.CleanupTimeoutDuration(),
			runtime.Workflow.CleanupConcurrency,
		),
	)

	return &Domain{
		Documents:     docsSystem,
		Notifications: notificationsSystem,
		Workflow:      workflowSystem,
	}
}
