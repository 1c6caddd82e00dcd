// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveSessions is the number of games currently in the session cache.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gloomdelve_active_sessions",
		Help: "Number of games currently cached in memory.",
	})

	// ConnectionsTotal counts accepted WebSocket connections.
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gloomdelve_connections_total",
		Help: "Accepted WebSocket connections.",
	})

	// IntentsTotal counts processed intents by type.
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gloomdelve_intents_total",
		Help: "Processed intents by type.",
	}, []string{"type"})

	// IntentsDropped counts intents discarded by throttles or a full queue.
	IntentsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gloomdelve_intents_dropped_total",
		Help: "Intents dropped by throttling or queue overflow.",
	}, []string{"reason"})

	// CheckpointsTotal counts durable-store checkpoint attempts by outcome.
	CheckpointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gloomdelve_checkpoints_total",
		Help: "Checkpoint writes by outcome.",
	}, []string{"outcome"})

	// EvictionsTotal counts idle sessions evicted by the sweeper.
	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gloomdelve_evictions_total",
		Help: "Sessions evicted for idleness.",
	})

	// GamesFinished counts terminal games by result.
	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gloomdelve_games_finished_total",
		Help: "Games reaching a terminal status, by result.",
	}, []string{"result"})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
