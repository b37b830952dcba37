package jwtgate

import (
	"net/http"
	"testing"
)

func TestIsStaticAsset(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		staticMount string
		want        bool
	}{
		{name: "favicon", path: "/favicon.ico", want: true},
		{name: "default static mount", path: "/static/app.css", want: true},
		{name: "configured mount", path: "/assets/app.css", staticMount: "assets", want: true},
		{name: "configured mount with slashes", path: "/assets/app.css", staticMount: "/assets/", want: true},
		{name: "unrelated path", path: "/users/1", want: false},
		{name: "configured mount not matched elsewhere", path: "/users/assets", staticMount: "assets", want: false},
		{name: "root", path: "/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaticAsset(tt.path, tt.staticMount); got != tt.want {
				t.Fatalf("isStaticAsset(%q, %q) = %v, want %v", tt.path, tt.staticMount, got, tt.want)
			}
		})
	}
}

func TestPrefixAPIName(t *testing.T) {
	rules := []RouteRule{
		{Method: http.MethodGet, Path: "/test"},
		{Method: http.MethodPost, Path: "/users"},
	}

	prefixed := prefixAPIName(rules, "/api/v1")
	if prefixed[0].Path != "/api/v1/test" || prefixed[1].Path != "/api/v1/users" {
		t.Fatalf("unexpected prefixed rules: %+v", prefixed)
	}
	if rules[0].Path != "/test" {
		t.Fatalf("prefixAPIName mutated its input: %+v", rules)
	}

	same := prefixAPIName(rules, "")
	if &same[0] != &rules[0] {
		t.Fatal("empty api name should be identity")
	}
}

func TestMatchPublic(t *testing.T) {
	rules := []RouteRule{
		{Method: http.MethodGet, Path: "/test"},
		{Method: http.MethodPut, Path: "/apples/sub/<id>"},
		{Method: http.MethodGet, Path: "/orgs/<org>/repos/<repo>"},
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{name: "exact match", method: http.MethodGet, path: "/test", want: true},
		{name: "verb mismatch", method: http.MethodPost, path: "/test", want: false},
		{name: "dynamic numeric segment", method: http.MethodPut, path: "/apples/sub/1", want: true},
		{name: "dynamic text segment", method: http.MethodPut, path: "/apples/sub/hello", want: true},
		{name: "extra segment", method: http.MethodPut, path: "/apples/sub/1/extra", want: false},
		{name: "missing segment", method: http.MethodPut, path: "/apples/sub", want: false},
		{name: "literal segment mismatch", method: http.MethodPut, path: "/pears/sub/1", want: false},
		{name: "two dynamic segments", method: http.MethodGet, path: "/orgs/acme/repos/site", want: true},
		{name: "preflight always public", method: http.MethodOptions, path: "/anything/at/all", want: true},
		{name: "no rules no match", method: http.MethodGet, path: "/nope", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchPublic(tt.method, tt.path, rules); got != tt.want {
				t.Fatalf("matchPublic(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchPublicEmptyRulesPreflight(t *testing.T) {
	if !matchPublic(http.MethodOptions, "/x", nil) {
		t.Fatal("OPTIONS must bypass even with no rules")
	}
	if matchPublic(http.MethodGet, "/x", nil) {
		t.Fatal("GET must not match empty rules")
	}
}
