package jwtgate

import "context"

// RouteRule pairs an HTTP verb with a path pattern. A pattern may contain
// dynamic segments wrapped in angle brackets, e.g. "/apples/sub/<id>"; a
// dynamic segment matches any single path segment.
type RouteRule struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
}

// LookupFunc performs the data-access side of entity resolution. It receives
// the attribute name to filter on (the descriptor's primary key name, or its
// identity field name for strategy logins) and the value to match. It returns
// the resolved row, or an error wrapping [ErrEntityNotFound] when no row
// matches.
//
// Lookup functions are plain values supplied at registration time. They are
// never attached to domain objects and must be safe for concurrent calls.
type LookupFunc func(ctx context.Context, keyName string, keyValue any) (any, error)

// Descriptor registers one entity type with the gate.
type Descriptor struct {
	// TypeTag identifies the entity kind. It is embedded in signed tokens
	// (historically the table name) and used as the context attachment key.
	// Must be unique within the registry.
	TypeTag string

	// KeyName is the primary-key attribute name for this type. When empty the
	// gate falls back to Config.EntityKeyName.
	KeyName string

	// IdentityKeyName is the attribute matched against an external identity
	// value (a strategy-verified email). Defaults to "email".
	IdentityKeyName string

	Lookup LookupFunc
}

// Identity is the result of a successful AuthStrategy verification.
type Identity struct {
	// Value is the stable external identifier, e.g. an email address.
	Value string
	// Raw carries any additional provider claims, untouched by the gate.
	Raw map[string]any
}

// AuthStrategy verifies a non-local credential (e.g. an OAuth 2.0 access
// token) against an external identity provider.
//
// Strategies are selected per request by header name: when a request carries
// the header a strategy declares, that strategy's Authorize is called with the
// bearer value from the header.
type AuthStrategy interface {
	// HeaderName is the provider-discriminator request header, e.g. "X-Auth-Token".
	HeaderName() string
	// DefaultTypeTag names the entity type an identity resolves against when
	// the request does not override it.
	DefaultTypeTag() string
	Authorize(ctx context.Context, token string) (Identity, error)
}

// RouteSource answers whether the host router has any handler mapped for a
// method/path pair. When configured, the gate passes unknown routes through
// untouched so the framework can emit its own 404 instead of a misleading 401.
type RouteSource interface {
	Exists(method, path string) bool
}

// Outcome is the terminal state of the per-request gate state machine.
type Outcome uint8

const (
	// OutcomePass means the request is exempt (static asset, unknown route,
	// ignored or whitelisted rule) and proceeds without a credential.
	OutcomePass Outcome = iota
	// OutcomeAuthorized means a credential verified and an entity resolved.
	OutcomeAuthorized
	// OutcomeRejected means verification failed; respond 401 and stop.
	OutcomeRejected
)

// Decision is the result of [Gate.Evaluate] for a single request.
type Decision struct {
	Outcome Outcome

	// Branch records which state produced the outcome, for logs and audit:
	// "static", "route_not_found", "ignored", "whitelisted", "token",
	// "strategy", or "rejected".
	Branch string

	// TypeTag and Entity are set when Outcome is OutcomeAuthorized.
	TypeTag string
	Entity  any

	// AccessToken carries the raw strategy bearer value for downstream use.
	// Empty on the signed-token path.
	AccessToken string

	// Err holds the internal failure cause when Outcome is OutcomeRejected.
	// It never reaches the HTTP response body.
	Err error
}
