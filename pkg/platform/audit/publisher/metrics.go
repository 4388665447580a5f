package publisher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "grunnlag/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for audit emission.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics creates and registers the audit publisher metrics.
func NewMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewMetricsWithRegistry registers on reg instead of the default registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_audit_events_emitted_total",
			Help: "Total number of audit events persisted to the outbox",
		}, []string{"category"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_audit_persist_failures_total",
			Help: "Total number of audit events that failed to persist",
		}, []string{"category"}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grunnlag_audit_persist_duration_seconds",
			Help:    "Duration of audit event persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (m *Metrics) IncEventsEmitted(category audit.EventCategory) {
	if m != nil {
		m.EventsEmitted.WithLabelValues(string(category)).Inc()
	}
}

func (m *Metrics) IncPersistFailures(category audit.EventCategory) {
	if m != nil {
		m.PersistFailures.WithLabelValues(string(category)).Inc()
	}
}

func (m *Metrics) ObservePersistDuration(d time.Duration) {
	if m != nil {
		m.PersistDuration.Observe(d.Seconds())
	}
}
