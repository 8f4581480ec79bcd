// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package metrics exposes Prometheus instrumentation for the API layer,
// the DuckDB storage layer, and the background housekeeping jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"class"}, // "general", "auth", "uploads", "assistant"
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Auth Metrics
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of completed logins",
		},
		[]string{"provider", "result"}, // result: "success", "failure"
	)

	OAuthStatesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oauth_states_active",
			Help: "Current number of unconsumed OAuth state entries",
		},
	)

	OAuthStatesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oauth_states_swept_total",
			Help: "Total number of expired OAuth states removed by the sweeper",
		},
	)

	// Notification Metrics
	NotificationsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications handed off for delivery",
		},
	)

	NotificationsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifications_pending",
			Help: "Current number of queued notifications",
		},
	)

	// Assistant Metrics
	AssistantRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Total number of assistant chat requests",
		},
		[]string{"result"}, // "success", "budget_exhausted", "upstream_error"
	)

	AssistantUpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_upstream_duration_seconds",
			Help:    "Duration of assistant model API calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Upload Metrics
	UploadsPresigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_presigned_total",
			Help: "Total number of presigned upload URLs issued",
		},
		[]string{"content_class"}, // "image", "video"
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLogin records a completed or failed login attempt per provider.
func RecordLogin(provider string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	LoginsTotal.WithLabelValues(provider, result).Inc()
}

// RecordRateLimitHit records a rate limit rejection for the given limiter
// class.
func RecordRateLimitHit(class string) {
	APIRateLimitHits.WithLabelValues(class).Inc()
}

// RecordStateSweep records the outcome of an OAuth state sweep pass.
func RecordStateSweep(removed, remaining int) {
	OAuthStatesSwept.Add(float64(removed))
	OAuthStatesActive.Set(float64(remaining))
}

// RecordAssistantRequest records an assistant chat outcome.
func RecordAssistantRequest(result string, duration time.Duration) {
	AssistantRequestsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		AssistantUpstreamDuration.Observe(duration.Seconds())
	}
}
