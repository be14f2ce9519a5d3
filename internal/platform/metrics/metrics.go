package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the counters the reconciler and ingestion paths report to.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	resolutions    *prometheus.CounterVec
	records        *prometheus.CounterVec
	games          *prometheus.CounterVec
	fetchAttempts  *prometheus.CounterVec
	ingestedLines  *prometheus.CounterVec
	breakerChanges *prometheus.CounterVec
	gameDuration   prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playerlink_resolutions_total",
			Help: "identity resolutions by source and winning tier",
		}, []string{"source", "tier"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playerlink_reconcile_records_total",
			Help: "betting-line records by reconciliation outcome",
		}, []string{"outcome"}),
		games: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playerlink_reconcile_games_total",
			Help: "games by reconciliation status",
		}, []string{"status"}),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playerlink_provider_requests_total",
			Help: "provider HTTP attempts by provider and result",
		}, []string{"provider", "result"}),
		ingestedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playerlink_ingested_lines_total",
			Help: "betting lines ingested by feed",
		}, []string{"feed"}),
		breakerChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playerlink_circuit_transitions_total",
			Help: "circuit breaker transitions by provider and target state",
		}, []string{"provider", "state"}),
		gameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "playerlink_reconcile_game_seconds",
			Help:    "wall time spent reconciling one game",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	r.registry.MustRegister(
		r.resolutions,
		r.records,
		r.games,
		r.fetchAttempts,
		r.ingestedLines,
		r.breakerChanges,
		r.gameDuration,
		collectors.NewGoCollector(),
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

func (r *Recorder) Resolution(source, tier string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(source, tier).Inc()
}

func (r *Recorder) RecordOutcome(outcome string) {
	if r == nil {
		return
	}
	r.records.WithLabelValues(outcome).Inc()
}

func (r *Recorder) GameFinished(status string, seconds float64) {
	if r == nil {
		return
	}
	r.games.WithLabelValues(status).Inc()
	r.gameDuration.Observe(seconds)
}

func (r *Recorder) ProviderAttempt(provider, result string) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(provider, result).Inc()
}

func (r *Recorder) LinesIngested(feed string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.ingestedLines.WithLabelValues(feed).Add(float64(n))
}

func (r *Recorder) BreakerTransition(provider, state string) {
	if r == nil {
		return
	}
	r.breakerChanges.WithLabelValues(provider, state).Inc()
}
