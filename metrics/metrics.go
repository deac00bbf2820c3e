// Package metrics records per run forecasting metrics on a private Prometheus registry. A batch
// run has no scrape endpoint so metrics are exported with the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "windowcast"

// series outcome label values
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// pipeline stage label values
const (
	StageBuild    = "build"
	StageEvaluate = "evaluate"
	StageFit      = "fit"
	StageForecast = "forecast"
)

// Metrics holds the collectors of one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SeriesTotal   *prometheus.CounterVec
	CVSkipped     prometheus.Counter
	CVRMSE        prometheus.Histogram
	StageDuration *prometheus.HistogramVec
	RunDuration   prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SeriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "series_total",
				Help:      "Number of series processed by outcome",
			},
			[]string{"status"},
		),
		CVSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cv_skipped_total",
			Help:      "Number of series without enough windows for cross validation",
		}),
		CVRMSE: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cv_rmse",
			Help:      "Cross validated RMSE per evaluated series",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent per series pipeline stage",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"stage"},
		),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
}

// Registry exposes the gatherer the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SeriesDone(status string) {
	if m == nil {
		return
	}
	m.SeriesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) CVDone(rmse float64) {
	if m == nil {
		return
	}
	m.CVRMSE.Observe(rmse)
}

func (m *Metrics) CVSkip() {
	if m == nil {
		return
	}
	m.CVSkipped.Inc()
}

// Stage records the time elapsed since start under the stage label
func (m *Metrics) Stage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RunDone(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Set(d.Seconds())
}

// WriteTextfile atomically writes every collected metric to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
