package jwtgate

import "errors"

var (
	// ErrUnauthorized is the single error class observable at the HTTP boundary.
	// Every verification failure wraps or maps to it.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingCredential is returned when a gated request carries no auth query
	// parameter, no strategy header, and no Authorization header.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedCredential is returned when a credential is present but cannot
	// be parsed (empty bearer value, unknown header scheme).
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrNoSuchType is returned when a token or strategy names an entity type that
	// is not in the registry. This indicates a configuration mistake, not routine
	// unauthenticated traffic, and is logged accordingly.
	ErrNoSuchType = errors.New("no entity descriptor for type tag")
	// ErrEntityNotFound is returned when a lookup finds no matching row for a
	// validly signed credential.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrStrategyFailure is returned when an external identity provider call fails
	// or yields data without the expected identity field.
	ErrStrategyFailure = errors.New("auth strategy failure")
	// ErrUnknownStrategy is returned when a provider header is present but no
	// registered strategy declares that header name.
	ErrUnknownStrategy = errors.New("no strategy registered for header")
	// ErrMissingTypeTag is a programmer error: creating a first-login token
	// without naming the entity type it is for.
	ErrMissingTypeTag = errors.New("type tag required to create a token")
	// ErrNoRequestEntity is a programmer error: renewing a token outside a request
	// that resolved an entity.
	ErrNoRequestEntity = errors.New("no resolved entity in request context")
	// ErrDuplicateTypeTag is returned by Build when two descriptors register the
	// same type tag.
	ErrDuplicateTypeTag = errors.New("duplicate entity type tag")
	// ErrKeyConfig is returned by Build unless exactly one of SecretKey or the
	// PublicKey/PrivateKey pair is configured.
	ErrKeyConfig = errors.New("configure a secret key or a public/private key pair, not both")
	// ErrGateNotReady is returned when a nil or unbuilt Gate is used.
	ErrGateNotReady = errors.New("gate not initialized")
)
