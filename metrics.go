package jwtgate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one gate decision counter.
type MetricID uint16

const (
	// MetricStaticBypass counts requests passed through as static assets.
	MetricStaticBypass MetricID = iota
	// MetricRouteNotFound counts requests passed through because the route
	// source reported no mapped handler.
	MetricRouteNotFound
	// MetricIgnoredBypass counts requests exempted by an ignored rule.
	MetricIgnoredBypass
	// MetricWhitelistBypass counts requests exempted by a whitelist rule
	// (pre-flight bypasses land here too).
	MetricWhitelistBypass
	// MetricAuthorizedToken counts requests authorized via a signed token.
	MetricAuthorizedToken
	// MetricAuthorizedStrategy counts requests authorized via an AuthStrategy.
	MetricAuthorizedStrategy
	// MetricRejectedMissing counts rejections with no credential presented.
	MetricRejectedMissing
	// MetricRejectedMalformed counts rejections for unparsable credentials.
	MetricRejectedMalformed
	// MetricRejectedSignature counts rejections for invalid signatures.
	MetricRejectedSignature
	// MetricRejectedExpired counts rejections for expired tokens.
	MetricRejectedExpired
	// MetricRejectedNoSuchType counts rejections for unregistered type tags.
	// A nonzero value usually means a registry misconfiguration.
	MetricRejectedNoSuchType
	// MetricRejectedNotFound counts rejections where no entity row matched.
	MetricRejectedNotFound
	// MetricRejectedStrategy counts rejections from failed provider calls.
	MetricRejectedStrategy
	// MetricDecisionLatency is the evaluate-latency histogram.
	MetricDecisionLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free decision counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics set from config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a decision latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricDecisionLatency {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram at once.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDecisionLatency].buckets[i])
		}
		s.Histograms[MetricDecisionLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	us := d.Microseconds()
	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 25000:
		return 6
	default:
		return 7
	}
}
