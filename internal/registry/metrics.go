package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registry HTTP calls and the person cache.
type Metrics struct {
	Requests *prometheus.HistogramVec
	Cache    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grunnlag_registry_http_duration_seconds",
			Help:    "Duration of registry HTTP calls by operation and outcome",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
		Cache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_registry_cache_total",
			Help: "Registry person cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveRequest records a call; outcome is "ok" or the error category.
func (m *Metrics) ObserveRequest(operation string, category ErrorCategory, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = string(category)
	}
	m.Requests.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

func (m *Metrics) IncCache(result string) {
	if m != nil {
		m.Cache.WithLabelValues(result).Inc()
	}
}
