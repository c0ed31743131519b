package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus instrumentation. Optional: a nil
// *Metrics disables collection so the engine stays usable as a plain library.
type Metrics struct {
	recordsInitialized prometheus.Counter
	updatesApplied     *prometheus.CounterVec
	updateFailures     *prometheus.CounterVec
	readinessChecks    *prometheus.CounterVec
	recomputeDuration  prometheus.Histogram
}

// NewMetrics registers the engine metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsInitialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "export_compliance",
			Name:      "records_initialized_total",
			Help:      "Compliance records built from catalog data.",
		}),
		updatesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "export_compliance",
			Name:      "updates_applied_total",
			Help:      "Tracker commands applied, by ledger.",
		}, []string{"ledger"}),
		updateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "export_compliance",
			Name:      "update_failures_total",
			Help:      "Rejected tracker updates, by error code.",
		}, []string{"code"}),
		readinessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "export_compliance",
			Name:      "readiness_checks_total",
			Help:      "Export readiness validations, by outcome.",
		}, []string{"outcome"}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "export_compliance",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of score/status/timeline recomputation.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.recordsInitialized,
		m.updatesApplied,
		m.updateFailures,
		m.readinessChecks,
		m.recomputeDuration,
	)
	return m
}

func (m *Metrics) recordInitialized() {
	if m == nil {
		return
	}
	m.recordsInitialized.Inc()
}

func (m *Metrics) updateApplied(ledger string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.updatesApplied.WithLabelValues(ledger).Add(float64(n))
}

func (m *Metrics) updateFailed(code string) {
	if m == nil {
		return
	}
	m.updateFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) readinessChecked(ready bool) {
	if m == nil {
		return
	}
	outcome := "not_ready"
	if ready {
		outcome = "ready"
	}
	m.readinessChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRecompute(seconds float64) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(seconds)
}
