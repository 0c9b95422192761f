// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

// Package metrics defines the Prometheus collectors shared by the gate, the
// identity resolver, the audit sink and the HTTP layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gate Decision Metrics

	GateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Total number of authorization gate decisions",
		},
		[]string{"decision", "resource"},
	)

	GateDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gate_decision_duration_seconds",
			Help:    "Duration of authorization gate decisions in seconds, including identity resolution",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"decision"},
	)

	GatePanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gate_panics_recovered_total",
			Help: "Total number of panics recovered inside the gate and mapped to a deny",
		},
	)

	// Identity Provider Metrics

	IdentityProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_provider_requests_total",
			Help: "Total number of token validations by provider and result",
		},
		[]string{"provider", "result"}, // result: "valid", "invalid", "unavailable"
	)

	IdentityProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identity_provider_duration_seconds",
			Help:    "Duration of token validation calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// Identity Cache Metrics

	IdentityCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_cache_hits_total",
			Help: "Total number of identity cache hits",
		},
		[]string{"backend"},
	)

	IdentityCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_cache_misses_total",
			Help: "Total number of identity cache misses",
		},
		[]string{"backend"},
	)

	IdentityCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_cache_evictions_total",
			Help: "Total number of identity cache evictions",
		},
		[]string{"backend"},
	)

	// Audit Sink Metrics

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of audit events by outcome",
		},
		[]string{"result"}, // result: "written", "failed", "dropped"
	)

	AuditQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current number of audit events waiting to be written",
		},
	)

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
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordGateDecision records one gate outcome.
func RecordGateDecision(decision, resource string, duration time.Duration) {
	if resource == "" {
		resource = "none"
	}
	GateDecisionsTotal.WithLabelValues(decision, resource).Inc()
	GateDecisionDuration.WithLabelValues(decision).Observe(duration.Seconds())
}

// RecordIdentityValidation records one token validation against a provider.
func RecordIdentityValidation(provider, result string, duration time.Duration) {
	IdentityProviderRequests.WithLabelValues(provider, result).Inc()
	IdentityProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAuditEvent records the outcome of an audit event.
func RecordAuditEvent(result string) {
	AuditEventsTotal.WithLabelValues(result).Inc()
}

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
