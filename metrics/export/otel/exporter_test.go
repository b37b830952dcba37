package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	jwtgate "github.com/joegasewicz/jwtgate"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	snapshot jwtgate.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() jwtgate.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                     { return f.dropped }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	values := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}
	return values
}

func TestExporterObservesSnapshot(t *testing.T) {
	source := &fakeSource{
		snapshot: jwtgate.MetricsSnapshot{
			Counters: map[jwtgate.MetricID]uint64{
				jwtgate.MetricAuthorizedToken: 7,
				jwtgate.MetricRejectedMissing: 3,
			},
			Histograms: map[jwtgate.MetricID][]uint64{
				jwtgate.MetricDecisionLatency: {1, 2, 0, 0, 0, 0, 0, 4},
			},
		},
		dropped: 2,
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewExporterFromSource(provider.Meter("test"), source)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}
	t.Cleanup(func() { _ = exporter.Shutdown() })

	values := collect(t, reader)

	if got := values["jwtgate_authorized_token_total"]; got != 7 {
		t.Fatalf("authorized = %d, want 7", got)
	}
	if got := values["jwtgate_rejected_missing_total"]; got != 3 {
		t.Fatalf("rejected = %d, want 3", got)
	}
	if got := values["jwtgate_static_bypass_total"]; got != 0 {
		t.Fatalf("static = %d, want 0", got)
	}
	if got := values["jwtgate_decision_latency_bucket_le_50us"]; got != 1 {
		t.Fatalf("bucket 50us = %d, want 1", got)
	}
	if got := values["jwtgate_decision_latency_bucket_le_inf"]; got != 4 {
		t.Fatalf("bucket inf = %d, want 4", got)
	}
	if got := values["jwtgate_audit_dropped_total"]; got != 2 {
		t.Fatalf("audit dropped = %d, want 2", got)
	}
}

func TestExporterTracksLiveGate(t *testing.T) {
	g, err := jwtgate.New().
		WithSecretKey([]byte("test-secret")).
		WithMetricsEnabled(true).
		WithWhitelist(jwtgate.RouteRule{Method: "GET", Path: "/open"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(g.Close)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewExporter(provider.Meter("test"), g)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	t.Cleanup(func() { _ = exporter.Shutdown() })

	if got := collect(t, reader)["jwtgate_rejected_missing_total"]; got != 0 {
		t.Fatalf("rejected = %d before any request", got)
	}

	g.Evaluate(httptest.NewRequest(http.MethodGet, "/secure", nil))
	g.Evaluate(httptest.NewRequest(http.MethodGet, "/open", nil))

	values := collect(t, reader)
	if got := values["jwtgate_rejected_missing_total"]; got != 1 {
		t.Fatalf("rejected = %d, want 1", got)
	}
	if got := values["jwtgate_whitelist_bypass_total"]; got != 1 {
		t.Fatalf("whitelist = %d, want 1", got)
	}
}

func TestExporterValidation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("err = %v, want ErrNilMeter", err)
	}
	if _, err := NewExporter(provider.Meter("test"), nil); err != ErrNilSource {
		t.Fatalf("err = %v, want ErrNilSource", err)
	}

	var e *Exporter
	if err := e.Shutdown(); err != nil {
		t.Fatalf("nil Shutdown: %v", err)
	}
}
