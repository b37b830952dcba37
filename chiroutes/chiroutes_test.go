package chiroutes

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

func noop(http.ResponseWriter, *http.Request) {}

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/users", noop)
	r.Get("/users/{id}", noop)
	r.Post("/login", noop)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/teachers/{id}", noop)
	})
	return r
}

func TestExists(t *testing.T) {
	src := New(newRouter())

	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{name: "exact match", method: http.MethodGet, path: "/users", want: true},
		{name: "param route", method: http.MethodGet, path: "/users/42", want: true},
		{name: "nested route", method: http.MethodGet, path: "/api/v1/teachers/1", want: true},
		{name: "trailing slash variant", method: http.MethodGet, path: "/users/", want: true},
		{name: "verb mismatch", method: http.MethodGet, path: "/login", want: false},
		{name: "unknown path", method: http.MethodGet, path: "/nowhere", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.Exists(tt.method, tt.path); got != tt.want {
				t.Fatalf("Exists(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestExistsNilReceiver(t *testing.T) {
	var src *Source
	if src.Exists(http.MethodGet, "/users") {
		t.Fatal("nil Source must report no routes")
	}
	if New(nil).Exists(http.MethodGet, "/users") {
		t.Fatal("nil router must report no routes")
	}
}
