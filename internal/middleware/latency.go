// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/ndisgate/internal/logging"
)

// RequestSample is one observed request.
type RequestSample struct {
	Route      string    `json:"route"`
	Method     string    `json:"method"`
	DurationMS int64     `json:"duration_ms"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// RouteStats contains aggregated statistics for a route.
type RouteStats struct {
	Route        string  `json:"route"`
	RequestCount int64   `json:"request_count"`
	DeniedCount  int64   `json:"denied_count"`
	AvgDuration  float64 `json:"avg_duration_ms"`
	P50Duration  int64   `json:"p50_duration_ms"`
	P95Duration  int64   `json:"p95_duration_ms"`
	P99Duration  int64   `json:"p99_duration_ms"`
	MaxDuration  int64   `json:"max_duration_ms"`
}

// LatencyMonitor keeps a sliding window of request samples.
type LatencyMonitor struct {
	mu         sync.RWMutex
	samples    []RequestSample
	maxSamples int
	slow       time.Duration
}

// NewLatencyMonitor creates a monitor holding up to maxSamples samples.
// Requests slower than slow are logged; zero disables the warning.
func NewLatencyMonitor(maxSamples int, slow time.Duration) *LatencyMonitor {
	if maxSamples <= 0 {
		maxSamples = 1000
	}
	return &LatencyMonitor{
		samples:    make([]RequestSample, 0, maxSamples),
		maxSamples: maxSamples,
		slow:       slow,
	}
}

// Record adds a sample.
func (m *LatencyMonitor) Record(sample *RequestSample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, *sample)
	if len(m.samples) > m.maxSamples {
		m.samples = m.samples[len(m.samples)-m.maxSamples:]
	}
}

// Stats returns per-route statistics, busiest route first.
func (m *LatencyMonitor) Stats() []RouteStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type bucket struct {
		durations []int64
		denied    int64
	}
	byRoute := make(map[string]*bucket)
	for _, s := range m.samples {
		key := s.Method + " " + s.Route
		b, ok := byRoute[key]
		if !ok {
			b = &bucket{}
			byRoute[key] = b
		}
		b.durations = append(b.durations, s.DurationMS)
		if s.StatusCode == http.StatusUnauthorized || s.StatusCode == http.StatusForbidden || s.StatusCode == http.StatusTemporaryRedirect {
			b.denied++
		}
	}

	stats := make([]RouteStats, 0, len(byRoute))
	for route, b := range byRoute {
		sorted := b.durations
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, d := range sorted {
			sum += d
		}
		stats = append(stats, RouteStats{
			Route:        route,
			RequestCount: int64(len(sorted)),
			DeniedCount:  b.denied,
			AvgDuration:  float64(sum) / float64(len(sorted)),
			P50Duration:  percentile(sorted, 0.50),
			P95Duration:  percentile(sorted, 0.95),
			P99Duration:  percentile(sorted, 0.99),
			MaxDuration:  sorted[len(sorted)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Route < stats[j].Route
	})
	return stats
}

// Recent returns the most recent n samples.
func (m *LatencyMonitor) Recent(n int) []RequestSample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n > len(m.samples) {
		n = len(m.samples)
	}
	recent := make([]RequestSample, n)
	copy(recent, m.samples[len(m.samples)-n:])
	return recent
}

// Middleware records every request passing through it.
func (m *LatencyMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := newStatusRecorder(w)

		next.ServeHTTP(wrapper, r)

		elapsed := time.Since(start)
		m.Record(&RequestSample{
			Route:      routeLabel(r),
			Method:     r.Method,
			DurationMS: elapsed.Milliseconds(),
			StatusCode: wrapper.statusCode,
			Timestamp:  time.Now(),
		})

		if m.slow > 0 && elapsed > m.slow {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("Slow request detected")
		}
	})
}

// percentile calculates the percentile value from a sorted slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
