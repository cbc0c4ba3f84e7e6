package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JaimeStill/custodian/pkg/identity"
	"github.com/JaimeStill/custodian/pkg/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}
	mw.Use(nil)

	if mw.Len() != 2 {
		t.Errorf("len: got %d, want 2", mw.Len())
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
}

func corsConfig() *middleware.CORSConfig {
	cfg := &middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://app.example.com"},
	}
	cfg.Finalize(nil)
	return cfg
}

func TestCORSDisabled(t *testing.T) {
	handler := middleware.CORS(&middleware.CORSConfig{})(ok)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://app.example.com")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS headers should not be set when disabled")
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	handler := middleware.CORS(corsConfig())(ok)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://app.example.com")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.example.com" {
		t.Errorf("allow origin: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "Content-Disposition" {
		t.Errorf("expose headers: got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Error("allow methods belongs on preflight responses only")
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	handler := middleware.CORS(corsConfig())(ok)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin should not receive CORS headers")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := middleware.CORS(corsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/documents", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PATCH, OPTIONS" {
		t.Errorf("allow methods: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Errorf("max age: got %q", got)
	}
}

func TestCORSWildcard(t *testing.T) {
	cfg := corsConfig()
	cfg.Origins = []string{"*"}
	handler := middleware.CORS(cfg)(ok)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://anything.example.com")
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin: got %q", got)
	}
}

func TestCORSConfigEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.example.com, ,http://b.example.com")
	t.Setenv("TEST_CORS_MAX_AGE", "60")

	cfg := &middleware.CORSConfig{}
	err := cfg.Finalize(&middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
		MaxAge:  "TEST_CORS_MAX_AGE",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if !cfg.Enabled {
		t.Error("expected enabled")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b.example.com" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
	if cfg.MaxAge != 60 {
		t.Errorf("max age: got %d", cfg.MaxAge)
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := middleware.Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/documents?page=2", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Errorf("level: got %s, want warn", e.Level)
	}
	fields := e.ContextMap()
	if fields["status"] != int64(http.StatusBadGateway) {
		t.Errorf("status field: got %v", fields["status"])
	}
	if fields["bytes"] != int64(8) {
		t.Errorf("bytes field: got %v", fields["bytes"])
	}
	if fields["uri"] != "/documents?page=2" {
		t.Errorf("uri field: got %v", fields["uri"])
	}
}

type stubVerifier struct {
	caller identity.Caller
	err    error
}

func (v stubVerifier) Verify(context.Context, string) (identity.Caller, error) {
	return v.caller, v.err
}

func TestAuthenticate(t *testing.T) {
	admin := identity.Caller{Role: identity.RoleAdmin}

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		status   int
	}{
		{"missing header", "", stubVerifier{caller: admin}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubVerifier{caller: admin}, http.StatusUnauthorized},
		{"empty token", "Bearer  ", stubVerifier{caller: admin}, http.StatusUnauthorized},
		{"rejected token", "Bearer abc", stubVerifier{err: errors.New("bad")}, http.StatusUnauthorized},
		{"valid token", "bearer abc", stubVerifier{caller: admin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen bool
			handler := middleware.Authenticate(tt.verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, seen = identity.CallerFrom(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if seen != (tt.status == http.StatusOK) {
				t.Errorf("caller on context: got %v", seen)
			}
		})
	}
}

func TestRequirePrivileged(t *testing.T) {
	tests := []struct {
		name   string
		ctx    func(context.Context) context.Context
		status int
	}{
		{"no caller", func(ctx context.Context) context.Context { return ctx }, http.StatusUnauthorized},
		{"user", func(ctx context.Context) context.Context {
			return identity.WithCaller(ctx, identity.Caller{Role: identity.RoleUser})
		}, http.StatusForbidden},
		{"admin", func(ctx context.Context) context.Context {
			return identity.WithCaller(ctx, identity.Caller{Role: identity.RoleAdmin})
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequirePrivileged(zap.NewNop())(ok)
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(tt.ctx(req.Context()))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
