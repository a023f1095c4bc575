package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters. A single instance is shared across
// all client runs; labels separate file kinds and issue severities.
type Metrics struct {
	FilesRead         *prometheus.CounterVec
	FilesSkipped      *prometheus.CounterVec
	RecordsNormalized *prometheus.CounterVec
	RecordsRejected   *prometheus.CounterVec
	IssuesRaised      *prometheus.CounterVec
	RunsCompleted     prometheus.Counter
}

// NewMetrics registers the pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FilesRead: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consolidator_files_read_total",
			Help: "Broker export files successfully read, by file kind.",
		}, []string{"kind"}),
		FilesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consolidator_files_skipped_total",
			Help: "Broker export files skipped or rejected, by reason.",
		}, []string{"reason"}),
		RecordsNormalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consolidator_records_normalized_total",
			Help: "Canonical records produced by the normalizer, by kind.",
		}, []string{"kind"}),
		RecordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consolidator_records_rejected_total",
			Help: "Records excluded by critical validation failures, by kind.",
		}, []string{"kind"}),
		IssuesRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consolidator_issues_total",
			Help: "Validation issues raised, by severity.",
		}, []string{"severity"}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "consolidator_client_runs_completed_total",
			Help: "Per-client pipeline runs completed.",
		}),
	}
}

// NewDefaultMetrics registers the metrics on the default registry.
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}
