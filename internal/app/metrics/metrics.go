// Package metrics exposes Prometheus collectors for the conversion service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediaconv/internal/app/acquisition"
	apperrors "mediaconv/internal/app/errors"
	"mediaconv/internal/app/janitor"
	"mediaconv/internal/app/model"
)

const namespace = "mediaconv"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	GateDecisions    *prometheus.CounterVec
	Attempts         *prometheus.CounterVec
	AttemptDuration  *prometheus.HistogramVec
	Conversions      *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	JanitorRemovals  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Usage gate admissions by how they were paid for.",
		}, []string{"decision"}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquisition_attempts_total",
			Help:      "Acquisition strategy attempts by outcome.",
		}, []string{"strategy", "outcome"}),
		AttemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "acquisition_attempt_seconds",
			Help:      "Time spent waiting on each acquisition strategy.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180},
		}, []string{"strategy"}),
		Conversions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Finished conversions by source and result kind.",
		}, []string{"source", "result"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_seconds",
			Help:      "End-to-end conversion latency.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"source"}),
		JanitorRemovals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_removed_files_total",
			Help:      "Files removed by the janitor.",
		}, []string{"kind"}),
	}
}

// ObserveGate records a usage gate result.
func (m *Metrics) ObserveGate(charge model.Charge, err error) {
	decision := string(charge)
	if err != nil {
		decision = string(apperrors.KindOf(err))
	}
	m.GateDecisions.WithLabelValues(decision).Inc()
}

// ObserveAttempt records one acquisition attempt.
func (m *Metrics) ObserveAttempt(a acquisition.Attempt) {
	m.Attempts.WithLabelValues(a.Strategy, a.Outcome.String()).Inc()
	m.AttemptDuration.WithLabelValues(a.Strategy).Observe(a.Elapsed.Seconds())
}

// ObserveConversion records a finished pipeline run.
func (m *Metrics) ObserveConversion(source model.SourceKind, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = string(apperrors.KindOf(err))
	}
	m.Conversions.WithLabelValues(string(source), result).Inc()
	m.PipelineDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

// ObserveSweep records a janitor pass.
func (m *Metrics) ObserveSweep(r janitor.Report) {
	m.JanitorRemovals.WithLabelValues("residue").Add(float64(r.Residue))
	m.JanitorRemovals.WithLabelValues("orphan").Add(float64(r.Orphans))
	m.JanitorRemovals.WithLabelValues("expired").Add(float64(r.Expired))
}

// TrackArtifacts exposes the number of live artifacts as a gauge.
func (m *Metrics) TrackArtifacts(active func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "artifacts_active",
		Help:      "Artifacts stored and not yet deleted.",
	}, func() float64 { return float64(active()) }))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
