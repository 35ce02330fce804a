package shared

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-run counters on a private registry so a batch run can
// dump them to a node-exporter textfile.
type Metrics struct {
	registry  *prometheus.Registry
	Decisions *prometheus.CounterVec // pipeline, outcome
	Removals  *prometheus.CounterVec // reason, mode
	Failures  *prometheus.CounterVec // reason
	Tracks    *prometheus.GaugeVec   // pipeline
	LastRun   prometheus.Gauge
}

// NewMetrics registers the curator collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curator",
			Name:      "decisions_total",
			Help:      "Per-track decisions by pipeline and outcome.",
		}, []string{"pipeline", "outcome"}),
		Removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curator",
			Name:      "removal_intents_total",
			Help:      "Removal intents passed through the deletion gate.",
		}, []string{"reason", "mode"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curator",
			Name:      "removal_failures_total",
			Help:      "Removal requests rejected by the streaming service.",
		}, []string{"reason"}),
		Tracks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "curator",
			Name:      "tracks_inspected",
			Help:      "Tracks inspected during the last run.",
		}, []string{"pipeline"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "curator",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	m.registry.MustRegister(m.Decisions, m.Removals, m.Failures, m.Tracks, m.LastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile stamps the run time and writes all metrics in text exposition format to path.
func (m *Metrics) WriteTextfile(path string, finished time.Time) error {
	m.LastRun.Set(float64(finished.Unix()))
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
