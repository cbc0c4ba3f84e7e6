package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/infrastructure"
	"github.com/JaimeStill/custodian/pkg/lifecycle"
)

func TestHealthAndReadiness(t *testing.T) {
	lc := lifecycle.New()
	lc.OnStartup("database", func(context.Context) error { return nil })
	router := buildRouter(&infrastructure.Infrastructure{
		Lifecycle: lc,
		Logger:    zap.NewNop(),
	}, "1.2.3")

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return rec
	}

	health := get("/healthz")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, health.Body.String())

	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)

	require.NoError(t, lc.WaitForStartup())
	ready := get("/readyz")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"database":"up"}}`, ready.Body.String())

	assert.Equal(t, http.StatusNotFound, get("/nothing").Code)
	require.NoError(t, lc.Shutdown(time.Second))
}
