package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gmslr_runs_total",
		Help: "Projection runs by outcome",
	}, []string{"outcome"})

	membersSampled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gmslr_members_sampled_total",
		Help: "Ensemble members sampled across all runs",
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gmslr_phase_duration_seconds",
		Help:    "Duration of each run phase",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
	}, []string{"phase"})
)

// Phases of a run, used as metric labels and span names.
const (
	phaseDrivers   = "drivers"
	phaseModels    = "models"
	phaseAggregate = "aggregate"
	phaseReduce    = "reduce"
)
