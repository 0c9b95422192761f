// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

/*
Package middleware provides the HTTP infrastructure middleware that wraps
the authorization gate.

Key Components:

  - RequestID: accepts or generates X-Request-ID and stores it for logging
    and audit correlation
  - PrometheusMetrics: request counts, latency and in-flight gauge labelled
    by chi route pattern
  - LatencyMonitor: sliding window of request latencies with percentile
    summaries and slow-request warnings

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(monitor.Middleware)
	r.Use(gate.Middleware(g, gateCfg))

RequestID runs first so deny audit events carry the request ID.
*/
package middleware
