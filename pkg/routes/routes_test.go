package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/custodian/pkg/routes"
)

func deny(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
}

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, deny, routes.Group{
		Prefix: "/permissions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: ok},
			{Method: "GET", Pattern: "/pending", Handler: ok, Privileged: true},
		},
		Children: []routes.Group{{
			Prefix: "/{id}",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/approve", Handler: ok, Privileged: true},
			},
		}},
	})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/permissions", http.StatusOK},
		{"GET", "/permissions/pending", http.StatusForbidden},
		{"POST", "/permissions/abc/approve", http.StatusForbidden},
		{"GET", "/permissions", http.StatusMethodNotAllowed},
		{"GET", "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRegisterPrivilegedWithoutGuardPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()

	routes.Register(http.NewServeMux(), nil, routes.Group{
		Prefix: "/permissions",
		Routes: []routes.Route{{Method: "GET", Pattern: "/pending", Handler: ok, Privileged: true}},
	})
}

func TestRegisterOpenRoutesWithoutGuard(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, nil, routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{{Method: "GET", Pattern: "", Handler: ok}},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}
