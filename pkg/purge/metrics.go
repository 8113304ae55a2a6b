package purge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks purge runs.
//
// Metrics:
//   - <ns>_purge_eligible_records: records eligible in the last run, by model
//   - <ns>_purge_deleted_records_total: records deleted, by model
//   - <ns>_purge_unit_failures_total: failed units, by model
//   - <ns>_purge_unit_duration_seconds: unit processing duration, by model
//   - <ns>_purge_last_run_timestamp_seconds: completion time of the last run
//   - <ns>_purge_runs_total: runs, by mode (commit, dry_run)
type Metrics struct {
	registry *prometheus.Registry

	eligible     *prometheus.GaugeVec
	deleted      *prometheus.CounterVec
	failures     *prometheus.CounterVec
	unitDuration *prometheus.HistogramVec
	lastRun      prometheus.Gauge
	runs         *prometheus.CounterVec
}

// NewMetrics creates and registers purge metrics. If registry is nil a new
// one is created.
func NewMetrics(namespace string, registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "coursys"
	}

	m := &Metrics{
		registry: registry,

		eligible: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "purge",
				Name:      "eligible_records",
				Help:      "Number of records eligible for purging in the last run",
			},
			[]string{"model"},
		),

		deleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "purge",
				Name:      "deleted_records_total",
				Help:      "Total number of purged records",
			},
			[]string{"model"},
		),

		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "purge",
				Name:      "unit_failures_total",
				Help:      "Total number of failed purge units",
			},
			[]string{"model"},
		),

		unitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "purge",
				Name:      "unit_duration_seconds",
				Help:      "Duration of purge unit processing in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
			},
			[]string{"model"},
		),

		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "purge",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last purge run finished",
			},
		),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "purge",
				Name:      "runs_total",
				Help:      "Total number of purge runs",
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(
		m.eligible,
		m.deleted,
		m.failures,
		m.unitDuration,
		m.lastRun,
		m.runs,
	)

	return m
}

// ObserveUnit records the outcome of one unit.
func (m *Metrics) ObserveUnit(res UnitResult) {
	m.unitDuration.WithLabelValues(res.Model).Observe(res.Duration.Seconds())
	// A failed enumeration may have deleted part of its set already.
	if res.Deleted > 0 {
		m.deleted.WithLabelValues(res.Model).Add(float64(res.Deleted))
	}
	if res.State == StateFailed {
		m.failures.WithLabelValues(res.Model).Inc()
		return
	}
	m.eligible.WithLabelValues(res.Model).Set(float64(res.Eligible))
}

// ObserveRun records the completion of a run.
func (m *Metrics) ObserveRun(r *Report) {
	mode := "commit"
	if r.DryRun {
		mode = "dry_run"
	}
	m.runs.WithLabelValues(mode).Inc()
	m.lastRun.Set(float64(r.FinishedAt.Unix()))
}

// Registry returns the Prometheus registry holding the purge metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics in the text exposition format to
// path, for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
