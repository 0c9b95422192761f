// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/ndisgate/internal/breaker"
)

const testAPIKey = "service-role-key"

func newTestGoTrue(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *GoTrueProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := breaker.DefaultSettings("test-gotrue-" + t.Name())
	s.IsSuccessful = tokenRejectionIsSuccess
	provider, err := NewGoTrueProvider(GoTrueConfig{
		URL:     server.URL + "/",
		APIKey:  testAPIKey,
		Timeout: timeout,
		Breaker: breaker.New(s),
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	return provider
}

func TestGoTrueProviderValidToken(t *testing.T) {
	t.Parallel()

	provider := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != GoTrueUserPath {
			t.Errorf("path = %q, want %q", r.URL.Path, GoTrueUserPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer good-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("apikey"); got != testAPIKey {
			t.Errorf("apikey = %q, want %q", got, testAPIKey)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-1","email":"fin@example.com","user_metadata":{"role":"FINANCE"}}`))
	}, time.Second)

	user, err := provider.ValidateToken(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if user.ID != "user-1" || user.Email != "fin@example.com" {
		t.Errorf("user = %+v", user)
	}
	if role, _ := user.UserMetadata["role"].(string); role != "FINANCE" {
		t.Errorf("role = %q, want FINANCE", role)
	}
}

func TestGoTrueProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"msg":"invalid JWT"}`, ErrInvalidCredentials},
		{"forbidden", http.StatusForbidden, `{}`, ErrInvalidCredentials},
		{"unprocessable", http.StatusUnprocessableEntity, `{}`, ErrInvalidCredentials},
		{"server error", http.StatusInternalServerError, `oops`, ErrProviderUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, ErrProviderUnavailable},
		{"malformed body", http.StatusOK, `{not json`, ErrProviderUnavailable},
		{"missing id", http.StatusOK, `{"email":"x@example.com"}`, ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			_, err := provider.ValidateToken(context.Background(), "some-token")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoTrueProviderTimeout(t *testing.T) {
	t.Parallel()

	provider := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := provider.ValidateToken(context.Background(), "slow-token")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("ValidateToken took %v, want bounded by timeout", elapsed)
	}
}

func TestGoTrueProviderRejectionsDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	provider := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, time.Second)

	for i := 0; i < 20; i++ {
		_, _ = provider.ValidateToken(context.Background(), "bad-token")
	}
	if provider.breaker.State() != "closed" {
		t.Errorf("breaker state = %q, want closed", provider.breaker.State())
	}
	if calls.Load() != 20 {
		t.Errorf("calls = %d, want 20", calls.Load())
	}
}

func TestGoTrueProviderOpenBreakerIsUnavailable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	provider := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Second)

	for i := 0; i < 10; i++ {
		_, _ = provider.ValidateToken(context.Background(), "token")
	}
	before := calls.Load()

	_, err := provider.ValidateToken(context.Background(), "token")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
	if calls.Load() != before {
		t.Errorf("provider called while breaker open")
	}
	if provider.breaker.State() != "open" {
		t.Errorf("breaker state = %q, want open", provider.breaker.State())
	}
}

func TestNewGoTrueProviderValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewGoTrueProvider(GoTrueConfig{APIKey: "k"}); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := NewGoTrueProvider(GoTrueConfig{URL: "https://example.supabase.co"}); err == nil {
		t.Error("expected error for missing API key")
	}
	p, err := NewGoTrueProvider(GoTrueConfig{URL: "https://example.supabase.co/", APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if p.userURL != "https://example.supabase.co/auth/v1/user" {
		t.Errorf("userURL = %q", p.userURL)
	}
	if p.Name() != "gotrue" {
		t.Errorf("Name() = %q, want gotrue", p.Name())
	}
}
