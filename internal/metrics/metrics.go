// Package metrics records analysis counters in a private Prometheus registry.
// tyr is a CLI, so metrics are exported to a node_exporter textfile at the
// end of a run rather than scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder holds the collectors for one process.
type Recorder struct {
	registry         *prometheus.Registry
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	threatsTotal     *prometheus.CounterVec
	filesTotal       *prometheus.CounterVec
	riskScore        *prometheus.GaugeVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tyr_analyses_total",
			Help: "Total threat analyses by provider and outcome.",
		}, []string{"provider", "outcome"}),
		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tyr_analysis_duration_seconds",
			Help:    "Provider round-trip plus parse time in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		threatsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tyr_threats_total",
			Help: "Total threats identified by risk level.",
		}, []string{"risk_level"}),
		filesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tyr_batch_files_total",
			Help: "Total files processed by batch scans by outcome.",
		}, []string{"outcome"}),
		riskScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tyr_last_risk_score",
			Help: "Overall risk score of the most recent analysis by input type.",
		}, []string{"input_type"}),
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordAnalysis records one provider analysis.
func (r *Recorder) RecordAnalysis(provider string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.analysesTotal.WithLabelValues(provider, outcome).Inc()
	r.analysisDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordThreat counts one threat at level.
func (r *Recorder) RecordThreat(level string) {
	if r == nil {
		return
	}
	r.threatsTotal.WithLabelValues(level).Inc()
}

// RecordScore sets the latest score for inputType.
func (r *Recorder) RecordScore(inputType string, score float64) {
	if r == nil {
		return
	}
	r.riskScore.WithLabelValues(inputType).Set(score)
}

// RecordFile counts one batch file.
func (r *Recorder) RecordFile(success bool) {
	if r == nil {
		return
	}
	if success {
		r.filesTotal.WithLabelValues(OutcomeSuccess).Inc()
	} else {
		r.filesTotal.WithLabelValues(OutcomeFailure).Inc()
	}
}

// WriteTextfile atomically writes all metrics in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
