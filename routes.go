package jwtgate

import (
	"net/http"
	"strings"
)

const faviconPath = "/favicon.ico"

// isStaticAsset reports whether path is served as a static asset: the
// well-known favicon path, or any path whose first segment equals the
// configured static mount (default "static").
func isStaticAsset(path, staticMount string) bool {
	if path == faviconPath || path == "favicon.ico" {
		return true
	}
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return false
	}
	first := segments[1]
	if first == "static" {
		return true
	}
	return staticMount != "" && first == strings.Trim(staticMount, "/")
}

// prefixAPIName prepends apiName to every rule path. Applied to whitelist
// rules only: ignored routes opt out of prefixing so operational endpoints
// keep stable paths.
func prefixAPIName(rules []RouteRule, apiName string) []RouteRule {
	if apiName == "" {
		return rules
	}
	prefixed := make([]RouteRule, len(rules))
	for i, r := range rules {
		prefixed[i] = RouteRule{Method: r.Method, Path: apiName + r.Path}
	}
	return prefixed
}

// matchPublic reports whether the method/path pair is exempted by any rule.
// Rules are OR'd; order never matters. Pre-flight requests are never gated.
func matchPublic(method, path string, rules []RouteRule) bool {
	if method == http.MethodOptions {
		return true
	}
	for _, rule := range rules {
		if rule.Method != method {
			continue
		}
		if rule.Path == path {
			return true
		}
		if matchDynamic(rule.Path, path) {
			return true
		}
	}
	return false
}

// matchDynamic performs segment-wise comparison of a rule pattern containing
// at least one <dynamic> segment against a concrete path. Dynamic segments
// match anything; literal segments must be equal; segment counts must be
// equal.
func matchDynamic(pattern, path string) bool {
	if !strings.Contains(pattern, "<") {
		return false
	}

	patternSegments := strings.Split(pattern, "/")
	pathSegments := strings.Split(path, "/")
	if len(patternSegments) != len(pathSegments) {
		return false
	}

	for i, seg := range patternSegments {
		if len(seg) == 0 {
			continue
		}
		if seg[0] == '<' {
			continue
		}
		if seg != pathSegments[i] {
			return false
		}
	}
	return true
}
