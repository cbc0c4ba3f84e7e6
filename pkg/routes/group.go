package routes

import (
	"fmt"
	"net/http"
)

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux. Routes marked
// Privileged are wrapped with guard. Panics if a privileged route is
// registered without a guard.
func Register(mux *http.ServeMux, guard func(http.Handler) http.Handler, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, guard, "", group)
	}
}

func registerGroup(mux *http.ServeMux, guard func(http.Handler) http.Handler, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern

		var handler http.Handler = route.Handler
		if route.Privileged {
			if guard == nil {
				panic(fmt.Sprintf("privileged route %q registered without a guard", pattern))
			}
			handler = guard(handler)
		}

		mux.Handle(pattern, handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, guard, fullPrefix, child)
	}
}
