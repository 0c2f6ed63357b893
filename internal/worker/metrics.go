package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloaty_worker_runs_total",
		Help: "Diagnosis runs processed by the statistical phase",
	}, []string{"outcome"}) // completed, insufficient_data, failed

	ingredientsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloaty_worker_ingredients_total",
		Help: "Ingredients processed by the AI pipeline",
	}, []string{"outcome"}) // result, discounted, skipped, failed

	aiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloaty_worker_ai_calls_total",
		Help: "Model calls made by the worker",
	}, []string{"operation"})

	ingredientDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bloaty_worker_ingredient_duration_seconds",
		Help:    "Wall time of the per-ingredient AI pipeline",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
