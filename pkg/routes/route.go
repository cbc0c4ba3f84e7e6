package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Privileged routes are
// wrapped with the guard passed to Register.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Privileged bool
}
