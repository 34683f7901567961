package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the search subsystem.
type Metrics struct {
	searchesRecorded *prometheus.CounterVec
	exportsTotal     *prometheus.CounterVec
	deletesTotal     prometheus.Counter
	prunedTotal      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with Prometheus collectors
// registered on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		searchesRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_searches_recorded_total",
				Help: "Total number of search executions persisted",
			},
			[]string{"owner"},
		),

		exportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlas_exports_total",
				Help: "Total number of exports performed, by format",
			},
			[]string{"format"},
		),

		deletesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "atlas_searches_deleted_total",
				Help: "Total number of search records deleted by user action",
			},
		),

		prunedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "atlas_searches_pruned_total",
				Help: "Total number of search records removed by retention pruning",
			},
		),
	}
}

// ObserveSearchRecorded records one persisted search execution.
func (m *Metrics) ObserveSearchRecorded(owner string) {
	m.searchesRecorded.WithLabelValues(owner).Inc()
}

// ObserveExport records one completed export.
func (m *Metrics) ObserveExport(format Format) {
	m.exportsTotal.WithLabelValues(string(format)).Inc()
}

// ObserveDelete records one user-initiated record deletion.
func (m *Metrics) ObserveDelete() {
	m.deletesTotal.Inc()
}

// ObservePruned records retention-pruned record deletions.
func (m *Metrics) ObservePruned(count int64) {
	m.prunedTotal.Add(float64(count))
}
