package jwtgate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joegasewicz/jwtgate/token"
)

// ResourceHeader optionally names which entity type a strategy-verified
// identity should resolve against, overriding the strategy's default. Useful
// when several tables hold externally authenticated users.
const ResourceHeader = "X-Auth-Resource"

const bearerScheme = "Bearer "
const basicScheme = "Basic "

// Gate is the request-gatekeeping orchestrator. It classifies each request
// against the route rules and, for gated routes, verifies a credential and
// resolves the backing entity.
//
// A Gate is immutable after [Builder.Build] and safe for concurrent use. No
// request-scoped value is ever stored on the Gate; everything a single
// request resolves lives in that request's Decision and context.
type Gate struct {
	config             Config
	prefixedWhitelist  []RouteRule
	tokens             *token.Manager
	registry           *registry
	strategies         []AuthStrategy
	strategiesByHeader map[string]AuthStrategy
	routeSource        RouteSource
	audit              *auditDispatcher
	metrics            *Metrics
	logger             zerolog.Logger
}

// Close flushes and stops the audit dispatcher.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	g.audit.Close()
}

// MetricsSnapshot returns a copy of the gate's decision counters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports audit events dropped under backpressure.
func (g *Gate) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.audit.Dropped()
}

// PrimaryKeyName returns the key attribute name used for typeTag: the
// descriptor's own KeyName when set, otherwise the configured EntityKeyName.
func (g *Gate) PrimaryKeyName(typeTag string) (string, error) {
	if g == nil || g.registry == nil {
		return "", ErrGateNotReady
	}
	return g.registry.primaryKeyName(typeTag)
}

// Strategy returns the registered strategy for a provider header name.
func (g *Gate) Strategy(headerName string) (AuthStrategy, bool) {
	if g == nil {
		return nil, false
	}
	s, ok := g.strategiesByHeader[headerName]
	return s, ok
}

// Evaluate runs the per-request state machine and returns the terminal
// decision. It never writes to the response; the middleware (or any other
// adapter) applies the outcome.
//
// The flow: static assets and unmapped routes pass untouched; ignored rules
// are checked before whitelist rules; whitelist paths are evaluated with the
// configured API-name prefix applied; everything else requires a credential.
func (g *Gate) Evaluate(r *http.Request) Decision {
	if g == nil || g.tokens == nil {
		return Decision{Outcome: OutcomeRejected, Branch: "rejected", Err: ErrGateNotReady}
	}

	start := time.Now()
	method := r.Method
	path := r.URL.Path

	d := g.evaluate(r, method, path)
	g.metrics.Observe(MetricDecisionLatency, time.Since(start))
	g.record(method, path, d)
	return d
}

func (g *Gate) evaluate(r *http.Request, method, path string) Decision {
	if isStaticAsset(path, g.config.StaticMount) {
		return Decision{Outcome: OutcomePass, Branch: "static"}
	}

	if g.routeSource != nil && !g.routeSource.Exists(method, path) {
		// let the framework produce its own 404 rather than a misleading 401
		return Decision{Outcome: OutcomePass, Branch: "route_not_found"}
	}

	if len(g.config.IgnoredRoutes) > 0 && matchPublic(method, path, g.config.IgnoredRoutes) {
		return Decision{Outcome: OutcomePass, Branch: "ignored"}
	}

	if matchPublic(method, path, g.prefixedWhitelist) {
		return Decision{Outcome: OutcomePass, Branch: "whitelisted"}
	}

	return g.authorize(r)
}

// authorize locates and verifies a credential. Precedence: the auth query
// parameter, then a registered strategy's provider header, then the standard
// Authorization header.
func (g *Gate) authorize(r *http.Request) Decision {
	ctx := r.Context()

	if raw := r.URL.Query().Get("auth"); raw != "" {
		return g.authorizeToken(ctx, raw)
	}

	for _, s := range g.strategies {
		header := r.Header.Get(s.HeaderName())
		if header == "" {
			continue
		}
		return g.authorizeStrategy(ctx, r, s, header)
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return rejected("token", ErrMissingCredential)
	}

	raw, err := stripScheme(authHeader)
	if err != nil {
		return rejected("token", err)
	}
	return g.authorizeToken(ctx, raw)
}

// authorizeToken verifies a locally signed token and resolves the entity by
// the embedded type tag and primary-key value.
func (g *Gate) authorizeToken(ctx context.Context, raw string) Decision {
	claims, err := g.tokens.Decode(raw)
	if err != nil {
		return rejected("token", err)
	}

	entity, err := g.registry.resolveByTag(ctx, claims.TypeTag, claims.EntityID)
	if err != nil {
		return rejected("token", err)
	}

	return Decision{
		Outcome: OutcomeAuthorized,
		Branch:  "token",
		TypeTag: claims.TypeTag,
		Entity:  entity,
	}
}

// authorizeStrategy verifies a provider credential and resolves the entity by
// the external identity value. The resource header may override which entity
// type the identity resolves against.
func (g *Gate) authorizeStrategy(ctx context.Context, r *http.Request, s AuthStrategy, header string) Decision {
	raw, ok := strings.CutPrefix(header, bearerScheme)
	if !ok || raw == "" {
		return rejected("strategy", ErrMalformedCredential)
	}

	identity, err := s.Authorize(ctx, raw)
	if err != nil {
		return rejected("strategy", errorsJoin(ErrStrategyFailure, err))
	}
	if identity.Value == "" {
		return rejected("strategy", ErrStrategyFailure)
	}

	tag := r.Header.Get(ResourceHeader)
	if tag == "" {
		tag = s.DefaultTypeTag()
	}

	entity, err := g.registry.resolveByIdentity(ctx, tag, identity.Value)
	if err != nil {
		return rejected("strategy", err)
	}

	return Decision{
		Outcome:     OutcomeAuthorized,
		Branch:      "strategy",
		TypeTag:     tag,
		Entity:      entity,
		AccessToken: raw,
	}
}

// CreateToken issues a first-login token. The type tag is mandatory: there is
// no previous token to infer it from, and silently defaulting it would issue
// credentials for the wrong entity kind.
func (g *Gate) CreateToken(typeTag string, entityID any) (string, error) {
	if g == nil || g.tokens == nil {
		return "", ErrGateNotReady
	}
	if typeTag == "" {
		return "", ErrMissingTypeTag
	}
	return g.tokens.Encode(typeTag, entityID)
}

// UpdateToken issues a renewal token for the entity resolved in the current
// request, inferring the type tag from the request context.
func (g *Gate) UpdateToken(ctx context.Context, entityID any) (string, error) {
	if g == nil || g.tokens == nil {
		return "", ErrGateNotReady
	}
	tag, ok := resolvedTagFromContext(ctx)
	if !ok {
		return "", ErrNoRequestEntity
	}
	return g.tokens.Encode(tag, entityID)
}

// record funnels every decision through logging, audit, and metrics. Failure
// detail stays server-side; the HTTP response never carries it.
func (g *Gate) record(method, path string, d Decision) {
	switch d.Outcome {
	case OutcomePass:
		g.metrics.Inc(passMetric(d.Branch))
		g.logger.Trace().
			Str("method", method).
			Str("path", path).
			Str("branch", d.Branch).
			Msg("gate pass")
	case OutcomeAuthorized:
		if d.Branch == "strategy" {
			g.metrics.Inc(MetricAuthorizedStrategy)
		} else {
			g.metrics.Inc(MetricAuthorizedToken)
		}
		g.logger.Debug().
			Str("method", method).
			Str("path", path).
			Str("branch", d.Branch).
			Str("type_tag", d.TypeTag).
			Msg("gate authorized")
	case OutcomeRejected:
		g.metrics.Inc(rejectMetric(d.Err))
		event := g.logger.Debug()
		if errors.Is(d.Err, ErrNoSuchType) {
			// a developer mistake, not routine unauthenticated traffic
			event = g.logger.Warn()
		}
		event.
			Str("method", method).
			Str("path", path).
			Str("branch", d.Branch).
			Err(d.Err).
			Msg("gate rejected")
	}

	g.audit.Emit(context.Background(), GateEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Method:    method,
		Path:      path,
		Decision:  decisionName(d.Outcome),
		Branch:    d.Branch,
		TypeTag:   d.TypeTag,
		Error:     errString(d.Err),
	})
}

func rejected(branch string, err error) Decision {
	return Decision{Outcome: OutcomeRejected, Branch: branch, Err: err}
}

func stripScheme(header string) (string, error) {
	if raw, ok := strings.CutPrefix(header, bearerScheme); ok {
		if raw == "" {
			return "", ErrMalformedCredential
		}
		return raw, nil
	}
	if raw, ok := strings.CutPrefix(header, basicScheme); ok {
		if raw == "" {
			return "", ErrMalformedCredential
		}
		return raw, nil
	}
	return "", ErrMalformedCredential
}

func passMetric(branch string) MetricID {
	switch branch {
	case "static":
		return MetricStaticBypass
	case "route_not_found":
		return MetricRouteNotFound
	case "ignored":
		return MetricIgnoredBypass
	default:
		return MetricWhitelistBypass
	}
}

func rejectMetric(err error) MetricID {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return MetricRejectedMissing
	case errors.Is(err, token.ErrInvalidSignature):
		return MetricRejectedSignature
	case errors.Is(err, token.ErrExpired):
		return MetricRejectedExpired
	case errors.Is(err, ErrNoSuchType):
		return MetricRejectedNoSuchType
	case errors.Is(err, ErrEntityNotFound):
		return MetricRejectedNotFound
	case errors.Is(err, ErrStrategyFailure), errors.Is(err, ErrUnknownStrategy):
		return MetricRejectedStrategy
	default:
		return MetricRejectedMalformed
	}
}

func decisionName(o Outcome) string {
	switch o {
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeRejected:
		return "rejected"
	default:
		return "pass"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func errorsJoin(class, cause error) error {
	if cause == nil {
		return class
	}
	return errors.Join(class, cause)
}
