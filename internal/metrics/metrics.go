// Package metrics holds the Prometheus instruments for the pipeline and the
// HTTP adapter.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineStageDuration times each stage of a pipeline build.
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "findmovie_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline build stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"stage"}, // "load", "matrix", "similarity"
	)

	PipelineBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findmovie_pipeline_builds_total",
			Help: "Total number of pipeline builds by result",
		},
		[]string{"result"},
	)

	DatasetSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "findmovie_dataset_size",
			Help: "Size of the active dataset snapshot",
		},
		[]string{"dimension"}, // "items", "users", "ratings", "columns"
	)

	RecommendationQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findmovie_recommendation_queries_total",
			Help: "Total number of recommendation queries by outcome",
		},
		[]string{"outcome"}, // "found", "not_found", "ambiguous", "no_data"
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "findmovie_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveStage records how long a build stage took.
func ObserveStage(stage string, d time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordBuild counts a finished build.
func RecordBuild(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PipelineBuilds.WithLabelValues(result).Inc()
}

// SetDatasetSize publishes the size of the active snapshot.
func SetDatasetSize(items, users, ratings, columns int) {
	DatasetSize.WithLabelValues("items").Set(float64(items))
	DatasetSize.WithLabelValues("users").Set(float64(users))
	DatasetSize.WithLabelValues("ratings").Set(float64(ratings))
	DatasetSize.WithLabelValues("columns").Set(float64(columns))
}

// RecordQuery counts a recommendation query.
func RecordQuery(outcome string) {
	RecommendationQueries.WithLabelValues(outcome).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
