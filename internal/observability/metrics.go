// Package observability exposes Prometheus metrics for the turn pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_turns_total",
			Help: "Total number of conversation turns by outcome",
		},
		[]string{"outcome"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kindred_turn_duration_seconds",
			Help:    "Turn processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	matchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kindred_matches_total",
			Help: "Total number of successful peer matches",
		},
	)
)

func init() {
	prometheus.MustRegister(turnsTotal, turnDuration, matchesTotal)
}

// Turn outcomes recorded by the orchestrator.
const (
	OutcomeContinued     = "continued"
	OutcomeMatched       = "matched"
	OutcomeNoMatch       = "no_match"
	OutcomeNotEnoughData = "not_enough_data"
	OutcomeError         = "error"
)

// RecordTurn counts one processed turn.
func RecordTurn(outcome string, duration time.Duration) {
	turnsTotal.WithLabelValues(outcome).Inc()
	turnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordMatch counts one successful peer match.
func RecordMatch() {
	matchesTotal.Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
