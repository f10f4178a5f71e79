package routes

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Route binds an HTTP method and a pattern relative to its group prefix.
// An empty Method matches every method.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Middleware applies to the
// group's routes and to every child group, outermost first.
type Group struct {
	Prefix     string
	Middleware []Middleware
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, parentMW []Middleware, group Group) {
	prefix := parentPrefix + group.Prefix
	chain := append(append([]Middleware(nil), parentMW...), group.Middleware...)

	for _, route := range group.Routes {
		pattern := prefix + route.Pattern
		if route.Method != "" {
			pattern = route.Method + " " + pattern
		}
		mux.Handle(pattern, wrap(route.Handler, chain))
	}
	for _, child := range group.Children {
		registerGroup(mux, prefix, chain, child)
	}
}

func wrap(h http.Handler, chain []Middleware) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
