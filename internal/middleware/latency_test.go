// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ndisgate/internal/logging"
)

func TestLatencyMonitor_SlidingWindow(t *testing.T) {
	m := NewLatencyMonitor(3, 0)
	for i := int64(1); i <= 5; i++ {
		m.Record(&RequestSample{Route: "/a", Method: "GET", DurationMS: i})
	}

	recent := m.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("len(Recent) = %d, want 3", len(recent))
	}
	if recent[0].DurationMS != 3 || recent[2].DurationMS != 5 {
		t.Errorf("Recent() = %+v, want durations 3..5", recent)
	}
}

func TestLatencyMonitor_Stats(t *testing.T) {
	m := NewLatencyMonitor(100, 0)
	for i := int64(1); i <= 10; i++ {
		m.Record(&RequestSample{Route: "/finance", Method: "GET", DurationMS: i * 10, StatusCode: http.StatusOK})
	}
	m.Record(&RequestSample{Route: "/admin", Method: "GET", DurationMS: 5, StatusCode: http.StatusForbidden})
	m.Record(&RequestSample{Route: "/admin", Method: "GET", DurationMS: 7, StatusCode: http.StatusTemporaryRedirect})

	stats := m.Stats()
	if len(stats) != 2 {
		t.Fatalf("len(Stats) = %d, want 2", len(stats))
	}

	finance := stats[0]
	if finance.Route != "GET /finance" || finance.RequestCount != 10 {
		t.Errorf("stats[0] = %+v", finance)
	}
	if finance.AvgDuration != 55 {
		t.Errorf("AvgDuration = %v, want 55", finance.AvgDuration)
	}
	if finance.P50Duration != 50 || finance.MaxDuration != 100 {
		t.Errorf("P50 = %d, Max = %d", finance.P50Duration, finance.MaxDuration)
	}

	admin := stats[1]
	if admin.DeniedCount != 2 {
		t.Errorf("DeniedCount = %d, want 2", admin.DeniedCount)
	}
}

func TestLatencyMonitor_Middleware(t *testing.T) {
	var buf bytes.Buffer
	original := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(original)

	m := NewLatencyMonitor(10, 10*time.Millisecond)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	recent := m.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("len(Recent) = %d, want 1", len(recent))
	}
	if recent[0].Route != "/slow" || recent[0].StatusCode != http.StatusAccepted {
		t.Errorf("sample = %+v", recent[0])
	}
	if !strings.Contains(buf.String(), "Slow request detected") {
		t.Errorf("expected slow request warning, got %q", buf.String())
	}
}

func TestLatencyMonitor_ConcurrentAccess(t *testing.T) {
	m := NewLatencyMonitor(50, 0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record(&RequestSample{Route: "/x", Method: "GET", DurationMS: int64(j)})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = m.Stats()
				_ = m.Recent(5)
			}
		}()
	}
	wg.Wait()

	if n := len(m.Recent(100)); n != 50 {
		t.Errorf("len(Recent) = %d, want 50", n)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want int64
	}{
		{0, 1},
		{0.5, 5},
		{0.95, 9},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
	if percentile(nil, 0.5) != 0 {
		t.Error("percentile of empty slice should be 0")
	}
}
