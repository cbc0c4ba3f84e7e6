package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/custodian/internal/api"
	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/internal/infrastructure"
	"github.com/JaimeStill/custodian/pkg/database"
	"github.com/JaimeStill/custodian/pkg/identity"
	"github.com/JaimeStill/custodian/pkg/logger"
	"github.com/JaimeStill/custodian/pkg/middleware"
	"github.com/JaimeStill/custodian/pkg/pagination"
	"github.com/JaimeStill/custodian/pkg/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "custodian",
			User:            "custodian",
			Password:        "custodian",
			SSLMode:         "disable",
			MaxConns:        10,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			Backend:   storage.BackendLocal,
			LocalRoot: t.TempDir(),
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "1MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultLimit: 20,
				MaxLimit:     100,
			},
		},
		Auth: config.AuthConfig{
			Mode:      config.AuthModeHMAC,
			Secret:    testSecret,
			RoleClaim: "role",
			Leeway:    "30s",
		},
		Workflow: config.WorkflowConfig{
			CleanupTimeout:     "10s",
			CleanupConcurrency: 2,
		},
		Logging: logger.Config{
			Level:  "error",
			Format: logger.FormatJSON,
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(context.Background(), cfg)
	require.NoError(t, err)
	return infra
}

func token(t *testing.T, role identity.Role) string {
	t.Helper()
	claims := identity.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	require.NoError(t, err)

	assert.Equal(t, "/api", m.Prefix())
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)

	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	assert.Equal(t, 20, runtime.Pagination.DefaultLimit)
	assert.Equal(t, 100, runtime.Pagination.MaxLimit)
	assert.Equal(t, 2, runtime.Workflow.CleanupConcurrency)
	assert.NotNil(t, runtime.Logger)
	assert.NotNil(t, runtime.Database)
	assert.NotNil(t, runtime.Storage)
	assert.NotNil(t, runtime.Lifecycle)
	assert.NotNil(t, runtime.Verifier)
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)

	domain := api.NewDomain(api.NewRuntime(cfg, setupInfra(t, cfg)))

	require.NotNil(t, domain)
	assert.NotNil(t, domain.Documents)
	assert.NotNil(t, domain.Notifications)
	assert.NotNil(t, domain.Workflow)
}

func TestModuleAuthentication(t *testing.T) {
	cfg := validConfig(t)
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{name: "missing token", method: "GET", path: "/api/permissions/pending", status: http.StatusUnauthorized},
		{name: "malformed token", method: "GET", path: "/api/permissions/pending", auth: "Bearer nope", status: http.StatusUnauthorized},
		{name: "user on privileged route", method: "GET", path: "/api/permissions/pending", auth: "Bearer " + token(t, identity.RoleUser), status: http.StatusForbidden},
		{name: "user approving", method: "POST", path: "/api/permissions/" + uuid.NewString() + "/approve", auth: "Bearer " + token(t, identity.RoleUser), status: http.StatusForbidden},
		{name: "admin with bad request id", method: "POST", path: "/api/permissions/abc/approve", auth: "Bearer " + token(t, identity.RoleAdmin), status: http.StatusBadRequest},
		{name: "bad document id", method: "GET", path: "/api/documents/abc", auth: "Bearer " + token(t, identity.RoleUser), status: http.StatusBadRequest},
		{name: "bad file version", method: "GET", path: "/api/documents/" + uuid.NewString() + "/versions/zero/file", auth: "Bearer " + token(t, identity.RoleUser), status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()

			m.Serve(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
