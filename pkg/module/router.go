package module

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/pkg/handlers"
)

var errRouteNotFound = errors.New("route not found")

// Router dispatches requests to mounted modules by their first path
// segment. Anything else goes to a native ServeMux, which answers
// unmatched paths with a JSON 404.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
	logger  *zap.Logger
}

// NewRouter creates a Router with no modules mounted.
func NewRouter(logger *zap.Logger) *Router {
	r := &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
		logger:  logger.With(zap.String("system", "router")),
	}
	r.native.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondError(w, r.logger, http.StatusNotFound, errRouteNotFound)
	})
	return r
}

// HandleNative registers a handler on the native fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers m under its prefix, replacing any module already there.
func (r *Router) Mount(m *Module) {
	if _, ok := r.modules[m.prefix]; ok {
		r.logger.Warn("module replaced", zap.String("prefix", m.prefix))
	}
	r.modules[m.prefix] = m
}

// ServeHTTP dispatches to the matching module or falls back to the native mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}

	if m, ok := r.modules[firstSegment(path)]; ok {
		m.Serve(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return "/" + rest
}
