// Package metrics holds the Prometheus collectors for the insight pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup outcomes.
const (
	CacheHit       = "hit"
	CacheMiss      = "miss"
	CacheStale     = "stale"
	CacheMalformed = "malformed"
	CacheError     = "error"
	CacheBypass    = "bypass"
)

// Metrics groups the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	CacheLookups       *prometheus.CounterVec
	ModelCalls         *prometheus.CounterVec
	ModelDuration      *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
	PolicyCorrections  *prometheus.CounterVec
	PersistFailures    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divelog_insight_cache_lookups_total",
				Help: "Stored insight lookups by outcome",
			},
			[]string{"outcome"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divelog_model_calls_total",
				Help: "LLM calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		ModelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "divelog_model_call_duration_seconds",
				Help:    "LLM call latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"provider"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divelog_insight_validation_failures_total",
				Help: "Model responses rejected by the validator, by reason",
			},
			[]string{"reason"},
		),
		PolicyCorrections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divelog_insight_policy_corrections_total",
				Help: "Corrections applied to accepted model responses, by rule",
			},
			[]string{"rule"},
		),
		PersistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "divelog_insight_persist_failures_total",
				Help: "Insight records that could not be written",
			},
		),
	}

	reg.MustRegister(
		m.CacheLookups,
		m.ModelCalls,
		m.ModelDuration,
		m.ValidationFailures,
		m.PolicyCorrections,
		m.PersistFailures,
	)
	return m
}

func (m *Metrics) CacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ModelCall(provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(provider, status).Inc()
	m.ModelDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ValidationFailure(reason string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) PolicyCorrection(rule string) {
	if m == nil {
		return
	}
	m.PolicyCorrections.WithLabelValues(rule).Inc()
}

func (m *Metrics) PersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// Handler exposes the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
