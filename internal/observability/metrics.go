package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// index pipeline.
type Metrics struct {
	RunsTotal     prometheus.Counter
	RunFailures   prometheus.Counter
	RunDuration   prometheus.Histogram
	LastRunUnixTS prometheus.Gauge

	CountiesScored       prometheus.Gauge
	SchemaMismatches     prometheus.Counter
	ImputedValues        prometheus.Counter
	DegenerateVariables  prometheus.Gauge
	ConfigurationsScored prometheus.Counter

	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunFailures,
		m.RunDuration,
		m.LastRunUnixTS,
		m.CountiesScored,
		m.SchemaMismatches,
		m.ImputedValues,
		m.DegenerateVariables,
		m.ConfigurationsScored,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering the collectors, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reai",
			Name:      "runs_total",
			Help:      "Total completed index runs.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reai",
			Name:      "run_failures_total",
			Help:      "Total index runs that ended in error.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reai",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-build-normalize-score-analyze run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastRunUnixTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reai",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last successful run.",
		}),
		CountiesScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reai",
			Name:      "counties_scored",
			Help:      "Counties with a defined final score in the last run.",
		}),
		SchemaMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reai",
			Name:      "schema_mismatches_total",
			Help:      "Source rows excluded because their FIPS code is not in the roster.",
		}),
		ImputedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reai",
			Name:      "imputed_values_total",
			Help:      "Absent observations filled by the active missing-data policy.",
		}),
		DegenerateVariables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reai",
			Name:      "degenerate_variables",
			Help:      "Variables with zero variance in the last run.",
		}),
		ConfigurationsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reai",
			Name:      "configurations_scored_total",
			Help:      "Weight configurations scored, baseline and sensitivity scenarios included.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reai",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
	}
}
