package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains authorization metrics.
type Metrics struct {
	// evaluationTotal counts authorization evaluations by result.
	evaluationTotal *prometheus.CounterVec

	// evaluationDuration measures authorization evaluation duration.
	evaluationDuration prometheus.Histogram

	// denyTotal counts deny decisions by reason.
	denyTotal *prometheus.CounterVec
}

// NewMetrics creates authorization metrics registered with the default
// Prometheus registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates authorization metrics registered with a
// custom registerer. Duplicate registrations are ignored.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "avauthz"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{}

	m.evaluationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "evaluation_total",
			Help:      "Total number of authorization evaluations",
		},
		[]string{"result"},
	)

	m.evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "evaluation_duration_seconds",
			Help:      "Authorization evaluation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	m.denyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "deny_total",
			Help:      "Total number of deny decisions by reason",
		},
		[]string{"reason"},
	)

	for _, c := range []prometheus.Collector{m.evaluationTotal, m.evaluationDuration, m.denyTotal} {
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
	for _, result := range []string{"allowed", "denied"} {
		m.evaluationTotal.WithLabelValues(result)
	}
	for _, reason := range []string{
		ReasonMissingToken,
		ReasonUnknownSession,
		ReasonExpiredSession,
		ReasonStoreUnavailable,
		ReasonInternalFault,
	} {
		m.denyTotal.WithLabelValues(reason)
	}
}

// RecordEvaluation records an authorization evaluation.
func (m *Metrics) RecordEvaluation(result string, duration time.Duration) {
	if m == nil || m.evaluationTotal == nil {
		return
	}
	m.evaluationTotal.WithLabelValues(result).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordDeny records a deny decision by reason.
func (m *Metrics) RecordDeny(reason string) {
	if m == nil || m.denyTotal == nil {
		return
	}
	m.denyTotal.WithLabelValues(reason).Inc()
}
