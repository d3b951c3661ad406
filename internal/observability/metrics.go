package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what one collection run saw. Every method is safe on a nil receiver.
type Metrics struct {
	gatherer prometheus.Gatherer

	repos    prometheus.Counter
	runs     prometheus.Counter
	jobs     prometheus.Counter
	records  prometheus.Counter
	skipped  *prometheus.CounterVec
	failures *prometheus.CounterVec
	calls    *prometheus.CounterVec
}

// NewMetrics registers the collector counters on a fresh registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith registers the collector counters on registry.
func NewMetricsWith(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: registry,
		repos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runnerstat_repositories_scanned_total",
			Help: "Repositories whose workflow runs were listed.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runnerstat_workflow_runs_total",
			Help: "Workflow runs whose jobs were listed.",
		}),
		jobs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runnerstat_jobs_seen_total",
			Help: "Jobs returned by the API before filtering.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runnerstat_job_records_total",
			Help: "Job records emitted after filtering.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runnerstat_jobs_skipped_total",
			Help: "Jobs dropped by a filter.",
		}, []string{"reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runnerstat_fetch_failures_total",
			Help: "API calls that failed, by operation.",
		}, []string{"op"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runnerstat_api_calls_total",
			Help: "API calls made, by operation.",
		}, []string{"op"}),
	}
	registry.MustRegister(m.repos, m.runs, m.jobs, m.records, m.skipped, m.failures, m.calls)
	return m
}

func (m *Metrics) IncRepo() {
	if m == nil {
		return
	}
	m.repos.Inc()
}

func (m *Metrics) IncRun() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

func (m *Metrics) IncJob() {
	if m == nil {
		return
	}
	m.jobs.Inc()
}

func (m *Metrics) IncRecord() {
	if m == nil {
		return
	}
	m.records.Inc()
}

func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncFailure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

func (m *Metrics) IncCall(op string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op).Inc()
}

// WriteTextfile writes the counters in the Prometheus text format, for pickup by
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.gatherer)
}
