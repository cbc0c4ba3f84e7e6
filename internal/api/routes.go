package api

import (
	"net/http"

	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/pkg/middleware"
	"github.com/JaimeStill/custodian/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	workflowHandler := domain.Workflow.Handler(cfg.API.MaxUploadSizeBytes())
	files := newFileHandler(domain.Documents, runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		middleware.RequirePrivileged(runtime.Logger),
		domain.Documents.Handler().Routes(),
		files.routes(),
		workflowHandler.DocumentRoutes(),
		workflowHandler.PermissionRoutes(),
		domain.Notifications.Handler().Routes(),
	)
}
