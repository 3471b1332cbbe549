package authcore

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID int

const (
	MetricCodeIssued MetricID = iota
	MetricCodeIssueRateLimited
	MetricCodeConsumed
	MetricCodeIncorrect
	MetricCodeAttemptsExceeded
	MetricCodeExpired
	MetricCodeMissing

	MetricSignInSuccess
	MetricSignInFailure
	MetricSignInLockedOut
	MetricSessionCreated

	MetricSignUpSuccess
	MetricSignUpFailure

	MetricAuthenticated
	MetricAuthRejected
	MetricSessionRevoked

	MetricPasswordChanged
	MetricPasswordReset
	MetricPasswordFailure

	metricCount
)

// Metrics is a fixed set of in-process atomic counters. A nil or disabled
// Metrics accepts increments and reports nothing.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot returns current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
