package api

import (
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/internal/infrastructure"
	"github.com/JaimeStill/custodian/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Workflow   config.WorkflowConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With(zap.String("module", "api")),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Verifier:  infra.Verifier,
		},
		Pagination: cfg.API.Pagination,
		Workflow:   cfg.Workflow,
	}
}
