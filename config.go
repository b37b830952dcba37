package jwtgate

import (
	"strings"
)

// DefaultExpiryDays is the token lifetime applied when Config.TokenExpiryDays
// is unset.
const DefaultExpiryDays = 30

// DefaultEntityKeyName is the primary-key attribute name applied when
// Config.EntityKeyName is unset.
const DefaultEntityKeyName = "id"

// SigningMethod selects the token signature algorithm. A gate verifies with
// exactly one algorithm; tokens signed with anything else are rejected.
type SigningMethod string

const (
	// MethodHS256 signs with an HMAC secret key.
	MethodHS256 SigningMethod = "hs256"
	// MethodRS256 signs with an RSA private key and verifies with the public key.
	MethodRS256 SigningMethod = "rs256"
)

// Config holds the gate's immutable-after-Build settings.
//
// Exactly one of SecretKey or the PublicKey/PrivateKey pair must be set;
// [Builder.Build] fails otherwise.
type Config struct {
	// SecretKey is the HMAC signing key (hs256).
	SecretKey []byte
	// PublicKey and PrivateKey are PEM-encoded RSA keys (rs256).
	PublicKey  []byte
	PrivateKey []byte

	// EntityKeyName is the default primary-key attribute name embedded in
	// tokens and used for lookups. Default "id". Individual descriptors may
	// override it with Descriptor.KeyName.
	EntityKeyName string

	// APIName is an optional prefix (e.g. "/api/v1") prepended to every
	// whitelist route path. Ignored routes are never prefixed.
	APIName string

	// StaticMount is the first path segment under which static assets are
	// served. "/static" always bypasses the gate; a non-empty StaticMount adds
	// a second bypassed mount.
	StaticMount string

	WhitelistRoutes []RouteRule
	IgnoredRoutes   []RouteRule

	// TokenExpiryDays is the token lifetime in whole days. Default 30.
	TokenExpiryDays int

	Audit   AuditConfig
	Metrics MetricsConfig
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// request goroutine.
	DropIfFull bool
}

// MetricsConfig controls the decision counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a Config with the library defaults applied. Key
// material and route rules still have to be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		EntityKeyName:   DefaultEntityKeyName,
		TokenExpiryDays: DefaultExpiryDays,
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.EntityKeyName == "" {
		c.EntityKeyName = DefaultEntityKeyName
	}
	if c.TokenExpiryDays <= 0 {
		c.TokenExpiryDays = DefaultExpiryDays
	}
	c.APIName = strings.TrimRight(c.APIName, "/")
}

// signingMethod derives the algorithm from the configured key material.
func (c *Config) signingMethod() SigningMethod {
	if len(c.SecretKey) > 0 {
		return MethodHS256
	}
	return MethodRS256
}

// validateKeys enforces the key invariant: a secret key or a full RSA pair,
// never both, never neither.
func (c *Config) validateKeys() error {
	hasSecret := len(c.SecretKey) > 0
	hasPair := len(c.PublicKey) > 0 && len(c.PrivateKey) > 0
	hasPartialPair := !hasPair && (len(c.PublicKey) > 0 || len(c.PrivateKey) > 0)
	if hasSecret == hasPair || hasPartialPair {
		return ErrKeyConfig
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.SecretKey = cloneBytes(c.SecretKey)
	out.PublicKey = cloneBytes(c.PublicKey)
	out.PrivateKey = cloneBytes(c.PrivateKey)
	out.WhitelistRoutes = cloneRules(c.WhitelistRoutes)
	out.IgnoredRoutes = cloneRules(c.IgnoredRoutes)
	return out
}

func cloneRules(rules []RouteRule) []RouteRule {
	if rules == nil {
		return nil
	}
	out := make([]RouteRule, len(rules))
	copy(out, rules)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
