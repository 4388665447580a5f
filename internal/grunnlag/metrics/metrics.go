package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the grunnlag module.
type Metrics struct {
	// Facts appended and duplicates skipped, by opplysningstype
	OpplysningerLagret *prometheus.CounterVec
	DuplikatOpplysning *prometheus.CounterVec

	// Batches where every fact was already present
	DuplikatBatcher prometheus.Counter

	// Rejected mutations of locked behandlinger
	LaastAvvist prometheus.Counter

	// Lock operations by kind: "laas", "laas_til"
	Laasinger *prometheus.CounterVec

	AggregeringLatency prometheus.Histogram

	// Registry lookups by call: "persongalleri", "person"
	RegistryLatency *prometheus.HistogramVec
	RegistryFeil    *prometheus.CounterVec

	SamsvarProblemer *prometheus.CounterVec
}

// New creates a new Metrics instance with all grunnlag metrics registered.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OpplysningerLagret: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_opplysninger_appended_total",
			Help: "Total facts appended to the ledger by type",
		}, []string{"type"}),

		DuplikatOpplysning: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_duplicate_opplysninger_total",
			Help: "Total facts skipped because their id was already in the sak",
		}, []string{"type"}),

		DuplikatBatcher: factory.NewCounter(prometheus.CounterOpts{
			Name: "grunnlag_duplicate_batches_total",
			Help: "Total append batches where every fact was a duplicate",
		}),

		LaastAvvist: factory.NewCounter(prometheus.CounterOpts{
			Name: "grunnlag_locked_rejections_total",
			Help: "Total mutations rejected because the behandling is locked",
		}),

		Laasinger: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_locks_total",
			Help: "Total lock operations by kind",
		}, []string{"kind"}),

		AggregeringLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grunnlag_aggregate_duration_seconds",
			Help:    "Duration of building a grunnlag snapshot including ledger reads",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		RegistryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grunnlag_registry_duration_seconds",
			Help:    "Duration of registry lookups by call",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"call"}),

		RegistryFeil: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_registry_failures_total",
			Help: "Total failed registry lookups by call",
		}, []string{"call"}),

		SamsvarProblemer: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grunnlag_persongalleri_problems_total",
			Help: "Roster reconciliation problems reported by kind",
		}, []string{"problem"}),
	}
}

func (m *Metrics) IncrementLagret(typ string) {
	if m != nil {
		m.OpplysningerLagret.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) IncrementDuplikat(typ string) {
	if m != nil {
		m.DuplikatOpplysning.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) IncrementDuplikatBatch() {
	if m != nil {
		m.DuplikatBatcher.Inc()
	}
}

func (m *Metrics) IncrementLaastAvvist() {
	if m != nil {
		m.LaastAvvist.Inc()
	}
}

func (m *Metrics) IncrementLaasing(kind string) {
	if m != nil {
		m.Laasinger.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveAggregering(d time.Duration) {
	if m != nil {
		m.AggregeringLatency.Observe(d.Seconds())
	}
}

// ObserveRegistry records the duration of a registry call and counts it as
// failed when err is non-nil.
func (m *Metrics) ObserveRegistry(call string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RegistryLatency.WithLabelValues(call).Observe(d.Seconds())
	if err != nil {
		m.RegistryFeil.WithLabelValues(call).Inc()
	}
}

func (m *Metrics) IncrementSamsvarProblem(problem string) {
	if m != nil {
		m.SamsvarProblemer.WithLabelValues(problem).Inc()
	}
}
