package main

import (
	"net/http"

	"github.com/JaimeStill/custodian/internal/api"
	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/internal/infrastructure"
	"github.com/JaimeStill/custodian/pkg/handlers"
	"github.com/JaimeStill/custodian/pkg/module"
)

// Modules holds every module mounted on the root router.
type Modules struct {
	API *module.Module
}

// NewModules builds the modules from shared infrastructure.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

// Mount registers every module on router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type status struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure, version string) *module.Router {
	router := module.NewRouter(infra.Logger)

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, status{Status: "ok", Version: version})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checks := infra.Lifecycle.Status()
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, status{Status: "not ready", Checks: checks})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, status{Status: "ready", Checks: checks})
	})

	return router
}
