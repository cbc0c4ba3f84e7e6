// Package middleware holds the HTTP middleware shared by modules: CORS,
// request logging, and bearer authentication.
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first
// middleware added is the outermost.
type System interface {
	Use(mw Middleware)
	Len() int
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	layers []Middleware
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw Middleware) {
	if mw != nil {
		s.layers = append(s.layers, mw)
	}
}

func (s *stack) Len() int {
	return len(s.layers)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.layers) - 1; i >= 0; i-- {
		handler = s.layers[i](handler)
	}
	return handler
}
