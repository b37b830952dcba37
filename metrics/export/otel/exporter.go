// Package otel exports jwtgate decision counters as OpenTelemetry observable
// instruments. Counters are pulled from a MetricsSnapshot inside the meter's
// collection callback, so the gate's hot path stays lock-free.
package otel

import (
	"context"
	"errors"
	"fmt"

	jwtgate "github.com/joegasewicz/jwtgate"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type counterDef struct {
	id   jwtgate.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{jwtgate.MetricStaticBypass, "jwtgate_static_bypass_total", "Requests passed through as static assets."},
	{jwtgate.MetricRouteNotFound, "jwtgate_route_not_found_total", "Requests passed through because no route is mapped."},
	{jwtgate.MetricIgnoredBypass, "jwtgate_ignored_bypass_total", "Requests exempted by an ignored rule."},
	{jwtgate.MetricWhitelistBypass, "jwtgate_whitelist_bypass_total", "Requests exempted by a whitelist rule."},
	{jwtgate.MetricAuthorizedToken, "jwtgate_authorized_token_total", "Requests authorized via a signed token."},
	{jwtgate.MetricAuthorizedStrategy, "jwtgate_authorized_strategy_total", "Requests authorized via an auth strategy."},
	{jwtgate.MetricRejectedMissing, "jwtgate_rejected_missing_total", "Rejections with no credential presented."},
	{jwtgate.MetricRejectedMalformed, "jwtgate_rejected_malformed_total", "Rejections for unparsable credentials."},
	{jwtgate.MetricRejectedSignature, "jwtgate_rejected_signature_total", "Rejections for invalid token signatures."},
	{jwtgate.MetricRejectedExpired, "jwtgate_rejected_expired_total", "Rejections for expired tokens."},
	{jwtgate.MetricRejectedNoSuchType, "jwtgate_rejected_no_such_type_total", "Rejections for unregistered entity type tags."},
	{jwtgate.MetricRejectedNotFound, "jwtgate_rejected_not_found_total", "Rejections where no entity row matched."},
	{jwtgate.MetricRejectedStrategy, "jwtgate_rejected_strategy_total", "Rejections from failed provider calls."},
}

var latencyBucketSuffix = []string{
	"50us", "100us", "250us", "500us", "1ms", "5ms", "25ms", "inf",
}

type metricsSource interface {
	MetricsSnapshot() jwtgate.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         jwtgate.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter registers observable instruments for every gate counter plus the
// decision-latency histogram buckets and the audit-drop counter.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	latency      []metric.Int64ObservableGauge
	auditDropped metric.Int64ObservableCounter
}

// NewExporter wires a Gate's counters into meter.
func NewExporter(meter metric.Meter, gate *jwtgate.Gate) (*Exporter, error) {
	if gate == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, gate)
}

// NewExporterFromSource is NewExporter for any snapshot source, mainly tests.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}
	observables := make([]metric.Observable, 0, len(counterDefs)+len(latencyBucketSuffix)+1)

	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	for _, suffix := range latencyBucketSuffix {
		name := "jwtgate_decision_latency_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Decision latency bucket count."))
		if err != nil {
			return nil, fmt.Errorf("create latency gauge %s: %w", name, err)
		}
		e.latency = append(e.latency, ins)
		observables = append(observables, ins)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"jwtgate_audit_dropped_total",
		metric.WithDescription("Audit events dropped under dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := e.source.MetricsSnapshot()
		for _, c := range e.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		buckets := snapshot.Histograms[jwtgate.MetricDecisionLatency]
		for i, ins := range e.latency {
			if i < len(buckets) {
				observer.ObserveInt64(ins, int64(buckets[i]))
			} else {
				observer.ObserveInt64(ins, 0)
			}
		}
		observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration

	return e, nil
}

// Shutdown unregisters the collection callback.
func (e *Exporter) Shutdown() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
