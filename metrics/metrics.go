// Package metrics records per-run counters and writes them for the
// node_exporter textfile collector. A run is a batch job, so nothing is
// served over HTTP; the registry is dumped once when the run ends.
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "opendata"

// Recorder holds the metrics of one run. A nil *Recorder discards
// everything, so callers never need to check whether metrics are on.
type Recorder struct {
	registry *prometheus.Registry

	files    *prometheus.CounterVec
	records  *prometheus.CounterVec
	dropped  prometheus.Counter
	relevant prometheus.Gauge
	rate     prometheus.Gauge
	scores   prometheus.Histogram
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Input files by load outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records loaded, by dataset kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_rows_total",
			Help:      "Rows dropped because every value was empty.",
		}),
		relevant: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relevant_datasets",
			Help:      "Catalog datasets with a positive relevance score.",
		}),
		rate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relevance_ratio",
			Help:      "Relevant datasets over all datasets.",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relevance_score",
			Help:      "Relevance scores of relevant datasets.",
			Buckets:   []float64{1, 10, 20, 35, 50, 100, 200},
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.files, r.records, r.dropped, r.relevant, r.rate, r.scores, r.duration, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileLoaded counts a file that was parsed, with its record and dropped
// row counts.
func (r *Recorder) FileLoaded(kind string, records, dropped int) {
	if r == nil {
		return
	}
	r.files.WithLabelValues("loaded").Inc()
	r.records.WithLabelValues(kind).Add(float64(records))
	r.dropped.Add(float64(dropped))
}

// FileFailed counts a file that was skipped.
func (r *Recorder) FileFailed() {
	if r == nil {
		return
	}
	r.files.WithLabelValues("failed").Inc()
}

// Relevance sets the relevant count and ratio of a catalog run.
func (r *Recorder) Relevance(relevant int, ratio float64) {
	if r == nil {
		return
	}
	r.relevant.Set(float64(relevant))
	r.rate.Set(ratio)
}

// ObserveScore adds one relevance score to the histogram.
func (r *Recorder) ObserveScore(score int) {
	if r == nil {
		return
	}
	r.scores.Observe(float64(score))
}

// RunFinished records the run duration and completion time.
func (r *Recorder) RunFinished(start, end time.Time) {
	if r == nil {
		return
	}
	r.duration.Set(end.Sub(start).Seconds())
	r.lastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	slog.Debug("metrics written", "path", path)
	return nil
}
