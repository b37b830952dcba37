package jwtgate

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joegasewicz/jwtgate/token"
)

// Builder assembles an immutable [Gate]. A Builder is single-use.
type Builder struct {
	config Config

	descriptors []Descriptor
	strategies  []AuthStrategy
	routeSource RouteSource
	auditSink   AuditSink
	logger      *zerolog.Logger

	built bool
}

// New starts a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecretKey configures HMAC (hs256) signing.
func (b *Builder) WithSecretKey(key []byte) *Builder {
	b.config.SecretKey = cloneBytes(key)
	return b
}

// WithKeyPair configures RSA (rs256) signing with PEM-encoded keys.
func (b *Builder) WithKeyPair(publicKey, privateKey []byte) *Builder {
	b.config.PublicKey = cloneBytes(publicKey)
	b.config.PrivateKey = cloneBytes(privateKey)
	return b
}

// WithAPIName sets the prefix applied to whitelist routes, e.g. "/api/v1".
func (b *Builder) WithAPIName(apiName string) *Builder {
	b.config.APIName = apiName
	return b
}

// WithWhitelist appends whitelist rules.
func (b *Builder) WithWhitelist(rules ...RouteRule) *Builder {
	b.config.WhitelistRoutes = append(b.config.WhitelistRoutes, rules...)
	return b
}

// WithIgnored appends ignored rules. Ignored routes skip auth and are never
// API-name prefixed.
func (b *Builder) WithIgnored(rules ...RouteRule) *Builder {
	b.config.IgnoredRoutes = append(b.config.IgnoredRoutes, rules...)
	return b
}

// WithEntity registers an entity descriptor.
func (b *Builder) WithEntity(d Descriptor) *Builder {
	b.descriptors = append(b.descriptors, d)
	return b
}

// WithStrategy registers an auth strategy. Strategies are consulted in
// registration order; the first one whose header is present handles the
// request.
func (b *Builder) WithStrategy(s AuthStrategy) *Builder {
	b.strategies = append(b.strategies, s)
	return b
}

// WithRouteSource wires the host router's route table so the gate can defer
// unmapped paths to the framework's own 404.
func (b *Builder) WithRouteSource(rs RouteSource) *Builder {
	b.routeSource = rs
	return b
}

// WithAuditSink enables auditing into sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithLogger sets the structured logger. Default is a no-op logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithMetricsEnabled toggles decision counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithTokenExpiryDays overrides the token lifetime.
func (b *Builder) WithTokenExpiryDays(days int) *Builder {
	b.config.TokenExpiryDays = days
	return b
}

// Build validates the configuration and returns the gate. The returned Gate
// owns precomputed route rules, the token manager, and the entity registry;
// none of them change afterwards.
func (b *Builder) Build() (*Gate, error) {
	if b.built {
		return nil, fmt.Errorf("builder already used")
	}

	cfg := cloneConfig(b.config)
	cfg.applyDefaults()

	if err := cfg.validateKeys(); err != nil {
		return nil, err
	}

	reg, err := newRegistry(b.descriptors, cfg.EntityKeyName)
	if err != nil {
		return nil, err
	}

	byHeader := make(map[string]AuthStrategy, len(b.strategies))
	for _, s := range b.strategies {
		name := s.HeaderName()
		if name == "" {
			return nil, fmt.Errorf("strategy %T declares an empty header name", s)
		}
		if _, dup := byHeader[name]; dup {
			return nil, fmt.Errorf("duplicate strategy header %q", name)
		}
		byHeader[name] = s
	}

	manager, err := token.NewManager(token.Config{
		Method:        token.Method(cfg.signingMethod()),
		SecretKey:     cfg.SecretKey,
		PublicKey:     cfg.PublicKey,
		PrivateKey:    cfg.PrivateKey,
		EntityKeyName: cfg.EntityKeyName,
		ExpiryDays:    cfg.TokenExpiryDays,
	})
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	gate := &Gate{
		config:             cfg,
		prefixedWhitelist:  prefixAPIName(cfg.WhitelistRoutes, cfg.APIName),
		tokens:             manager,
		registry:           reg,
		strategies:         b.strategies,
		strategiesByHeader: byHeader,
		routeSource:        b.routeSource,
		audit:              newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:            NewMetrics(cfg.Metrics),
		logger:             logger,
	}

	b.built = true
	return gate, nil
}
