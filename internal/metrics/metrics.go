// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package metrics provides Prometheus instrumentation for Resonate:
//   - Query resolution latency and resolution-tier outcomes
//   - External provider request latency, outcomes, and circuit breaker state
//   - Feature and response cache efficiency
//   - Catalog size gauges set once at startup
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query Metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resonate_query_duration_seconds",
			Help:    "Duration of recommendation query resolution in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"tier"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_queries_total",
			Help: "Total number of recommendation queries by resolution tier",
		},
		[]string{"tier", "matched"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_query_errors_total",
			Help: "Total number of query failures by error class",
		},
		[]string{"error_type"},
	)

	// Provider Metrics
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_provider_requests_total",
			Help: "Total number of external feature provider requests by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "rate_limited", "unavailable"
	)

	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resonate_provider_request_duration_seconds",
			Help:    "External feature provider round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resonate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_cache_hits_total",
			Help: "Total cache hits by cache name",
		},
		[]string{"cache"}, // "features", "responses"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_cache_misses_total",
			Help: "Total cache misses by cache name",
		},
		[]string{"cache"},
	)

	// Catalog Gauges (set once at startup)
	CatalogTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resonate_catalog_tracks",
			Help: "Number of tracks in the loaded catalog",
		},
	)

	CatalogPartitions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resonate_catalog_partitions",
			Help: "Number of partitions (clusters) in the similarity index",
		},
	)

	CatalogEmbeddingDim = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resonate_catalog_embedding_dimensions",
			Help: "Dimensionality of the reduced track embeddings",
		},
	)

	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resonate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resonate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// ObserveQuery records a resolved query's latency and tier in one call.
func ObserveQuery(tier string, matched bool, duration time.Duration) {
	QueryDuration.WithLabelValues(tier).Observe(duration.Seconds())
	QueriesTotal.WithLabelValues(tier, strconv.FormatBool(matched)).Inc()
}

// ObserveProviderRequest records a provider round trip.
func ObserveProviderRequest(outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(outcome).Inc()
	ProviderRequestDuration.Observe(duration.Seconds())
}
