package attack

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("m209/attack")

var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "m209",
			Subsystem: "attack",
			Name:      "evaluations_total",
			Help:      "Decryptions scored.",
		},
		[]string{"mode"},
	)

	restartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "m209",
			Subsystem: "attack",
			Name:      "restarts_total",
			Help:      "Search cycles started from a random key.",
		},
		[]string{"mode"},
	)

	resultsAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "m209",
			Subsystem: "attack",
			Name:      "results_accepted_total",
			Help:      "Candidate keys accepted into the best results.",
		},
		[]string{"mode"},
	)

	bestScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "m209",
			Subsystem: "attack",
			Name:      "best_score",
			Help:      "Best score of the current run.",
		},
		[]string{"mode"},
	)

	workersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "m209",
			Subsystem: "attack",
			Name:      "workers_active",
			Help:      "Search workers currently running.",
		},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "m209",
			Subsystem: "attack",
			Name:      "run_duration_seconds",
			Help:      "Wall time of attack runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"mode"},
	)
)
