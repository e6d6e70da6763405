// Package metrics provides Prometheus metrics for machivoice.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit outcome labels for CommitsTotal.
const (
	CommitFiled        = "filed"
	CommitGeocodeMiss  = "geocode_miss"
	CommitGeocodeError = "geocode_error"
	CommitStoreError   = "store_error"
)

// Metrics holds all Prometheus metrics for the feedback service.
type Metrics struct {
	// Dialogue metrics
	TurnsTotal              *prometheus.CounterVec
	ContractViolationsTotal prometheus.Counter
	CompletionsTotal        prometheus.Counter

	// Commit pipeline metrics. Geocode misses and store failures are
	// swallowed on the caller-facing path, so these counters are the only
	// place they stay visible.
	CommitsTotal *prometheus.CounterVec

	// Model gateway metrics
	ModelRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "machivoice_turns_total",
				Help: "Total number of dialogue turns by outcome",
			},
			[]string{"outcome"},
		),
		ContractViolationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "machivoice_contract_violations_total",
				Help: "Total number of model replies that did not conform to the structured output contract",
			},
		),
		CompletionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "machivoice_form_completions_total",
				Help: "Total number of turns whose merged form was complete",
			},
		),
		CommitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "machivoice_commits_total",
				Help: "Total number of commit pipeline runs by result",
			},
			[]string{"result"},
		),
		ModelRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "machivoice_model_request_duration_seconds",
				Help:    "Duration of model gateway requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}
}
