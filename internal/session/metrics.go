package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains session store metrics.
type Metrics struct {
	// lookupTotal counts session lookups by result.
	lookupTotal *prometheus.CounterVec

	// lookupDuration measures session lookup duration.
	lookupDuration prometheus.Histogram

	// breakerState tracks the circuit breaker state (0=closed, 1=half-open, 2=open).
	breakerState prometheus.Gauge
}

// NewMetrics creates session store metrics registered with the default
// Prometheus registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates session store metrics registered with a
// custom registerer. Duplicate registrations are ignored so the same
// process can construct metrics more than once in tests.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "avauthz"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{}

	m.lookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "lookup_total",
			Help:      "Total number of session store lookups",
		},
		[]string{"result"},
	)

	m.lookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "lookup_duration_seconds",
			Help:      "Session store lookup duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)

	m.breakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "breaker_state",
			Help:      "Session store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	for _, c := range []prometheus.Collector{m.lookupTotal, m.lookupDuration, m.breakerState} {
		_ = registerer.Register(c)
	}

	return m
}

// Init pre-initializes label combinations so metrics appear on the
// /metrics endpoint immediately after startup.
func (m *Metrics) Init() {
	if m == nil {
		return
	}
	for _, result := range []string{"found", "not_found", "malformed", "error", "rejected"} {
		m.lookupTotal.WithLabelValues(result)
	}
}

// RecordLookup records a session lookup.
func (m *Metrics) RecordLookup(result string, duration time.Duration) {
	if m == nil || m.lookupTotal == nil {
		return
	}
	m.lookupTotal.WithLabelValues(result).Inc()
	m.lookupDuration.Observe(duration.Seconds())
}

// SetBreakerState records the circuit breaker state.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil || m.breakerState == nil {
		return
	}
	m.breakerState.Set(float64(state))
}
