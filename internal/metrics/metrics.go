// Package metrics provides Prometheus metrics for historycourt.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.Metrics = (*Recorder)(nil)

const namespace = "historycourt"

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	// GenerationTotal counts strategy attempts by outcome.
	GenerationTotal *prometheus.CounterVec

	// GenerationDuration measures strategy attempts.
	GenerationDuration *prometheus.HistogramVec

	// ValidationFailures counts rejected documents by rule.
	ValidationFailures *prometheus.CounterVec

	// HistoryItems records the item count after each shrink stage.
	HistoryItems *prometheus.HistogramVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		GenerationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_total",
				Help:      "Total number of round generation attempts",
			},
			[]string{"strategy", "outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of round generation attempts in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"strategy"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of generated documents rejected by rule",
			},
			[]string{"rule"},
		),
		HistoryItems: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "history_items",
				Help:      "Distribution of history sizes after each shrink stage",
				Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000, 20000, 100000},
			},
			[]string{"stage"},
		),
	}
}

// ObserveGeneration records one strategy attempt.
func (r *Recorder) ObserveGeneration(strategy, outcome string, seconds float64) {
	r.GenerationTotal.WithLabelValues(strategy, outcome).Inc()
	r.GenerationDuration.WithLabelValues(strategy).Observe(seconds)
}

// ObserveValidationFailure records a rejected document.
func (r *Recorder) ObserveValidationFailure(rule string) {
	r.ValidationFailures.WithLabelValues(rule).Inc()
}

// ObserveHistoryStage records the item count after a shrink stage.
func (r *Recorder) ObserveHistoryStage(stage string, items int) {
	r.HistoryItems.WithLabelValues(stage).Observe(float64(items))
}

// Registry returns the registry for additional collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
