// Package chiroutes adapts a chi router's route table to the
// jwtgate.RouteSource contract, so the gate can pass unmapped paths through
// to chi's own 404 handling instead of answering 401.
package chiroutes

import (
	"strings"

	"github.com/go-chi/chi/v5"
)

// Source answers route-existence queries against a chi router.
type Source struct {
	router chi.Router
}

// New wraps a chi router. The router should be fully mounted before the first
// request is served.
func New(router chi.Router) *Source {
	return &Source{router: router}
}

// Exists reports whether the router has a handler for method+path. A
// trailing-slash variant is tried as well, matching the redirect a router
// would issue before dispatching.
func (s *Source) Exists(method, path string) bool {
	if s == nil || s.router == nil {
		return false
	}
	if s.match(method, path) {
		return true
	}

	// follow the slash-redirect variant before concluding no-match
	if strings.HasSuffix(path, "/") && len(path) > 1 {
		return s.match(method, strings.TrimRight(path, "/"))
	}
	return s.match(method, path+"/")
}

func (s *Source) match(method, path string) bool {
	rctx := chi.NewRouteContext()
	return s.router.Match(rctx, method, path)
}
