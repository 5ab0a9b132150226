package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EntriesScanned            prometheus.Counter
	FindingsDetected          *prometheus.CounterVec
	EnforcementActions        *prometheus.CounterVec
	CorrectiveFailures        prometheus.Counter
	AuditWriteFailures        prometheus.Counter
	AuditDuplicatesSuppressed prometheus.Counter
	SummaryRequests           prometheus.Counter
	SummaryLatency            prometheus.Histogram
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "carelog_entries_scanned_total",
			Help: "Total number of entry documents scanned by enforcement",
		}),
		FindingsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carelog_findings_detected_total",
			Help: "Total unsuppressed findings by detector",
		}, []string{"detector"}),
		EnforcementActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carelog_enforcement_actions_total",
			Help: "Total corrective actions by action taken",
		}, []string{"action"}),
		CorrectiveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "carelog_corrective_failures_total",
			Help: "Corrective actions the store refused; distinct from normal violations",
		}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "carelog_audit_write_failures_total",
			Help: "Audit appends that failed after the corrective action was applied",
		}),
		AuditDuplicatesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "carelog_audit_duplicates_suppressed_total",
			Help: "Audit appends skipped by re-invocation deduplication",
		}),
		SummaryRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "carelog_summary_requests_total",
			Help: "Total shift summary requests",
		}),
		SummaryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carelog_summary_latency_seconds",
			Help:    "Latency of shift summary generation",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
