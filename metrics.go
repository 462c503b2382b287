package authflow

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by authflow APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the login engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the login engine.
	MetricLoginFailure
	// MetricChallengeStarted is an exported constant or variable used by the login engine.
	MetricChallengeStarted
	// MetricChallengeResend is an exported constant or variable used by the login engine.
	MetricChallengeResend
	// MetricChallengeFailure is an exported constant or variable used by the login engine.
	MetricChallengeFailure
	// MetricLegacyVerifySuccess is an exported constant or variable used by the login engine.
	MetricLegacyVerifySuccess
	// MetricLegacyVerifyFailure is an exported constant or variable used by the login engine.
	MetricLegacyVerifyFailure
	// MetricCancel is an exported constant or variable used by the login engine.
	MetricCancel
	// MetricLogout is an exported constant or variable used by the login engine.
	MetricLogout
	// MetricStateViolation is an exported constant or variable used by the login engine.
	MetricStateViolation
	// MetricStaleResponseDiscarded is an exported constant or variable used by the login engine.
	MetricStaleResponseDiscarded
	// MetricSessionPersisted is an exported constant or variable used by the login engine.
	MetricSessionPersisted
	// MetricSessionRestored is an exported constant or variable used by the login engine.
	MetricSessionRestored
	// MetricSessionRefreshed is an exported constant or variable used by the login engine.
	MetricSessionRefreshed
	// MetricSessionRejected is an exported constant or variable used by the login engine.
	MetricSessionRejected
	// MetricLoginLatency is an exported constant or variable used by the login engine.
	MetricLoginLatency
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

// Metrics defines a public type used by authflow APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by authflow APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled describes the latencyenabled operation and its observable behavior.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe describes the observe operation and its observable behavior.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricLoginLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, metricIDCount),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	if m == nil {
		return snap
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLoginLatency].buckets[i])
		}
		snap.Histograms[MetricLoginLatency] = buckets
	}
	return snap
}

// bucketIndex maps a latency to one of eight fixed buckets:
// 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, +Inf. Remote login round-trips
// are an order slower than the server-side hot paths, so the bounds sit in
// the hundreds of milliseconds.
func bucketIndex(d time.Duration) int {
	switch {
	case d <= 50*time.Millisecond:
		return 0
	case d <= 100*time.Millisecond:
		return 1
	case d <= 250*time.Millisecond:
		return 2
	case d <= 500*time.Millisecond:
		return 3
	case d <= time.Second:
		return 4
	case d <= 2500*time.Millisecond:
		return 5
	case d <= 5*time.Second:
		return 6
	default:
		return 7
	}
}
