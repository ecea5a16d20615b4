// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_recommendations_served_total",
			Help: "Total number of recommended items served",
		},
		[]string{"source"}, // "cache", "fallback"
	)

	RecommendationRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsrec_recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
	)

	// Feedback Metrics
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_reactions_total",
			Help: "Total number of processed reactions",
		},
		[]string{"reaction"},
	)

	ReactionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_reaction_errors_total",
			Help: "Total number of rejected or failed reactions",
		},
		[]string{"kind"}, // "validation", "not_found", "persistence"
	)

	RefreshRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsrec_cache_refresh_requests_total",
			Help: "Total number of feedback-triggered cache refresh requests",
		},
	)

	// Score Cache Metrics
	CacheRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsrec_cache_recompute_duration_seconds",
			Help:    "Duration of per-user score cache recomputation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	CacheRecomputeCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsrec_cache_recompute_candidates",
			Help:    "Number of positive-scored candidates stored per recompute",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	CacheRecomputeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsrec_cache_recompute_errors_total",
			Help: "Total number of aborted score cache recomputations",
		},
	)

	CacheRefreshAllDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsrec_cache_refresh_all_duration_seconds",
			Help:    "Duration of scheduled refresh sweeps over all users",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Similarity Index Metrics
	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsrec_index_build_duration_seconds",
			Help:    "Duration of similarity index fits",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	IndexDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsrec_index_documents",
			Help: "Number of documents in the serving similarity index",
		},
	)

	IndexVocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsrec_index_vocabulary_size",
			Help: "Number of features in the serving similarity index",
		},
	)

	IndexBuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_index_build_errors_total",
			Help: "Total number of discarded similarity index fits",
		},
		[]string{"reason"}, // "canceled", "error"
	)

	SimilarityQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsrec_similarity_query_duration_seconds",
			Help:    "Duration of similarity index queries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"kind"}, // "neighbors", "query"
	)

	// Session Metrics
	SessionStoreEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsrec_session_store_entries",
			Help: "Current number of live reading sessions",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_events_published_total",
			Help: "Total number of events published to the message bus",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_events_handled_total",
			Help: "Total number of consumed events by outcome",
		},
		[]string{"topic", "status"}, // "success", "error"
	)

	// Scheduler Metrics
	SchedulerJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_scheduler_job_runs_total",
			Help: "Total number of scheduled job runs by outcome",
		},
		[]string{"job", "status"},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsrec_scheduler_job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"job"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsrec_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsrec_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordRecommendation records one served recommendation list.
func RecordRecommendation(source string, count int) {
	RecommendationRequests.Inc()
	RecommendationsServed.WithLabelValues(source).Add(float64(count))
}

// RecordCacheRecompute records a score cache recomputation.
func RecordCacheRecompute(duration time.Duration, candidates int, err error) {
	if err != nil {
		CacheRecomputeErrors.Inc()
		return
	}
	CacheRecomputeDuration.Observe(duration.Seconds())
	CacheRecomputeCandidates.Observe(float64(candidates))
}

// RecordIndexBuild records a completed similarity index fit.
func RecordIndexBuild(duration time.Duration, documents, features int) {
	IndexBuildDuration.Observe(duration.Seconds())
	IndexDocuments.Set(float64(documents))
	IndexVocabularySize.Set(float64(features))
}

// RecordSimilarityQuery records a similarity lookup.
func RecordSimilarityQuery(kind string, duration time.Duration) {
	SimilarityQueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordEventHandled records the outcome of one consumed event.
func RecordEventHandled(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsHandled.WithLabelValues(topic, status).Inc()
}

// RecordJobRun records one scheduled job execution.
func RecordJobRun(job string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SchedulerJobRuns.WithLabelValues(job, status).Inc()
	SchedulerJobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
