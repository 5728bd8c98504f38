// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package metrics provides Prometheus instrumentation for Tastegraph.
//
// Collectors cover the tabular store (operation latency and errors), the
// sync channels (row outcomes, duration, last success), the analytics
// pipeline, and the observability API. Metrics are exposed at /metrics
// in Prometheus text format by internal/api.
package metrics

import (
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of tabular store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of tabular store operation errors",
		},
		[]string{"operation", "table"},
	)

	StoreRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_rows_written_total",
			Help: "Total number of rows written or appended per table",
		},
		[]string{"table"},
	)

	StoreThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_throttle_wait_seconds",
			Help:    "Time spent waiting on the store write rate limiter",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	// Sync channel metrics.
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Runs over large tables can take minutes
		},
		[]string{"channel"},
	)

	SyncRowsUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rows_updated_total",
			Help: "Total number of destination rows updated per channel",
		},
		[]string{"channel"},
	)

	SyncRowsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rows_appended_total",
			Help: "Total number of destination rows appended per channel",
		},
		[]string{"channel"},
	)

	SyncRowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rows_skipped_total",
			Help: "Total number of source rows skipped per channel",
		},
		[]string{"channel"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total number of failed sync runs",
		},
		[]string{"channel", "error_type"}, // "precondition", "store", "other"
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync run per channel",
		},
		[]string{"channel"},
	)

	// Analytics pipeline metrics.
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_pipeline_duration_seconds",
			Help:    "Duration of the aggregation and scoring pipeline in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TagsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tags_scored_total",
			Help: "Total number of tag rows rewritten by the scoring pipeline",
		},
	)

	RecordsAggregated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "records_aggregated_total",
			Help: "Total number of consumed records folded into tag aggregates",
		},
	)

	ScoringLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoring_last_success_timestamp",
			Help: "Unix timestamp of the last successful scoring pipeline run",
		},
	)

	// API metrics.
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

	// System metrics.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// SetAppInfo publishes the build version gauge.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordStoreOp records a tabular store operation metric.
func RecordStoreOp(operation, table string, duration time.Duration, err error) {
	StoreOpDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		StoreOpErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordSyncRun records the outcome of one sync run.
func RecordSyncRun(channel string, duration time.Duration, updated, appended, skipped int, err error) {
	SyncDuration.WithLabelValues(channel).Observe(duration.Seconds())
	SyncRowsUpdated.WithLabelValues(channel).Add(float64(updated))
	SyncRowsAppended.WithLabelValues(channel).Add(float64(appended))
	SyncRowsSkipped.WithLabelValues(channel).Add(float64(skipped))
	if err != nil {
		SyncErrors.WithLabelValues(channel, errorType(err)).Inc()
		return
	}
	SyncLastSuccess.WithLabelValues(channel).Set(float64(time.Now().Unix()))
}

// RecordScoringRun records the outcome of one scoring pipeline run.
func RecordScoringRun(duration time.Duration, records, tags int, err error) {
	ScoringDuration.Observe(duration.Seconds())
	RecordsAggregated.Add(float64(records))
	TagsScored.Add(float64(tags))
	if err == nil {
		ScoringLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// errorType buckets an error for the sync_errors_total label.
func errorType(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "missing required column"), strings.Contains(msg, "table not found"):
		return "precondition"
	case strings.Contains(msg, "store"):
		return "store"
	default:
		return "other"
	}
}
