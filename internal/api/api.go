// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/internal/infrastructure"
	"github.com/JaimeStill/custodian/pkg/middleware"
	"github.com/JaimeStill/custodian/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every route requires a verified caller; privileged routes additionally
// require an administrator.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}

	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Authenticate(runtime.Verifier, runtime.Logger))

	return m, nil
}
