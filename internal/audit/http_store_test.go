// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/breaker"
)

func newTestHTTPStore(t *testing.T, handler http.HandlerFunc) *HTTPStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewHTTPStore(HTTPStoreConfig{
		Endpoint: server.URL + "/audit_logs",
		APIKey:   "ingest-key",
		Timeout:  time.Second,
		Breaker:  breaker.New(breaker.DefaultSettings("test-audit-" + t.Name())),
	})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestHTTPStore_Save(t *testing.T) {
	var (
		mu       sync.Mutex
		received map[string]interface{}
	)
	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/audit_logs" {
			t.Errorf("path = %s, want /audit_logs", r.URL.Path)
		}
		if r.Header.Get("apikey") != "ingest-key" {
			t.Errorf("apikey = %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		mu.Lock()
		defer mu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	event := deniedEvent("role SCHEDULER denied access to admin")
	normalize(event)
	if err := store.Save(context.Background(), event); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := map[string]interface{}{
		"userId":    "user-1",
		"action":    "ACCESS_DENIED",
		"resource":  "/admin",
		"details":   "role SCHEDULER denied access to admin",
		"ipAddress": "203.0.113.9",
		"userAgent": "test-agent",
	}
	for k, v := range want {
		if received[k] != v {
			t.Errorf("payload[%s] = %v, want %v", k, received[k], v)
		}
	}
}

func TestHTTPStore_NullUserID(t *testing.T) {
	var received map[string]interface{}
	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
	})

	event := &Event{Action: ActionAccessDenied, Resource: "/finance", Details: "no credential"}
	normalize(event)
	if err := store.Save(context.Background(), event); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	v, ok := received["userId"]
	if !ok || v != nil {
		t.Errorf("userId = %v (present %v), want explicit null", v, ok)
	}
}

func TestHTTPStore_Rejected(t *testing.T) {
	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := store.Save(context.Background(), deniedEvent("no credential"))
	if !errors.Is(err, ErrStoreRejected) {
		t.Errorf("error = %v, want ErrStoreRejected", err)
	}
}

func TestHTTPStore_FailureDoesNotReachCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	store, err := NewHTTPStore(HTTPStoreConfig{Endpoint: endpoint, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	sink := NewSink(store, testConfig(10))

	start := time.Now()
	sink.Record(deniedEvent("no credential"))
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Record took %v", elapsed)
	}
	_ = sink.Close()

	if sink.Stats().Failed != 1 {
		t.Errorf("Failed = %d, want 1", sink.Stats().Failed)
	}
}

func TestNewHTTPStore_RequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPStore(HTTPStoreConfig{}); err == nil {
		t.Error("expected error for missing endpoint")
	}
}
