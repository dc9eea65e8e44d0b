package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GateMetrics exposes Prometheus collectors for session-gate instrumentation.
type GateMetrics struct {
	Decisions      *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	DecodeFailures prometheus.Counter
	OracleFailures prometheus.Counter
	OracleLatency  prometheus.Histogram
}

// NewGateMetrics constructs and registers the gate collectors.
func NewGateMetrics(reg prometheus.Registerer, namespace string) *GateMetrics {
	if namespace == "" {
		namespace = "paire"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &GateMetrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Session gate decisions partitioned by outcome and reason.",
		}, []string{"outcome", "reason"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "cache_lookups_total",
			Help:      "Validity cache lookups partitioned by result.",
		}, []string{"result"}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decode_failures_total",
			Help:      "Bearer tokens whose claims could not be decoded.",
		}),
		OracleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "oracle_failures_total",
			Help:      "Revocation oracle calls that errored or timed out.",
		}),
		OracleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "oracle_latency_seconds",
			Help:      "Latency of revocation oracle calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveDecision records a gate decision.
func (m *GateMetrics) ObserveDecision(outcome, reason string) {
	if m == nil || m.Decisions == nil {
		return
	}
	m.Decisions.WithLabelValues(outcome, reason).Inc()
}

// ObserveCacheLookup records a validity-cache hit or miss.
func (m *GateMetrics) ObserveCacheLookup(hit bool) {
	if m == nil || m.CacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveDecodeFailure records an undecodable bearer token.
func (m *GateMetrics) ObserveDecodeFailure() {
	if m == nil || m.DecodeFailures == nil {
		return
	}
	m.DecodeFailures.Inc()
}

// ObserveOracleFailure records a failed oracle call.
func (m *GateMetrics) ObserveOracleFailure() {
	if m == nil || m.OracleFailures == nil {
		return
	}
	m.OracleFailures.Inc()
}

// ObserveOracleLatency records the duration of an oracle call in seconds.
func (m *GateMetrics) ObserveOracleLatency(seconds float64) {
	if m == nil || m.OracleLatency == nil {
		return
	}
	m.OracleLatency.Observe(seconds)
}
