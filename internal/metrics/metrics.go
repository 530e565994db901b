// Package metrics exposes run outcomes as Prometheus metrics. The harvester is
// a batch job, so metrics are written to a node-exporter textfile rather than
// served.
package metrics

import (
	"fmt"
	"strings"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agendas"

// Recorder holds the run metrics in its own registry.
type Recorder struct {
	reg      *prometheus.Registry
	outcomes *prometheus.CounterVec
	duration *prometheus.GaugeVec
	lastRun  prometheus.Gauge
	failed   prometheus.Gauge
}

// New registers the run metrics on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "council_outcomes_total",
			Help:      "Pipeline runs per council by outcome.",
		}, []string{"council", "outcome"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "council_duration_seconds",
			Help:      "Duration of the council's most recent pipeline run.",
		}, []string{"council"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failed_councils",
			Help:      "Councils that failed in the last run.",
		}),
	}
	r.reg.MustRegister(r.outcomes, r.duration, r.lastRun, r.failed)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Record adds a finished run to the metrics.
func (r *Recorder) Record(report pipeline.Report) {
	for _, res := range report.Results {
		council := strings.ToLower(res.Council)
		r.outcomes.WithLabelValues(council, string(res.Outcome)).Inc()
		r.duration.WithLabelValues(council).Set(res.Duration.Seconds())
	}
	if !report.Finished.IsZero() {
		r.lastRun.Set(float64(report.Finished.Unix()))
	}
	r.failed.Set(float64(report.Failed()))
}

// WriteTextfile writes the metrics in text exposition format. A blank path is
// a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
