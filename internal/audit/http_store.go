// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/breaker"
)

// HTTPStoreConfig configures an HTTPStore.
type HTTPStoreConfig struct {
	// Endpoint receives one POST per event.
	Endpoint string

	// APIKey is sent as both the apikey header and a bearer token.
	APIKey string

	// Timeout for each POST. Defaults to 5s.
	Timeout time.Duration

	HTTPClient *http.Client
	Breaker    *breaker.Breaker
}

// HTTPStore posts events to a log-ingestion endpoint. The response body is
// ignored; a status of 400 or above is reported as ErrStoreRejected.
type HTTPStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *breaker.Breaker
}

// NewHTTPStore creates an HTTPStore.
func NewHTTPStore(cfg HTTPStoreConfig) (*HTTPStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("audit: endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	cb := cfg.Breaker
	if cb == nil {
		cb = breaker.New(breaker.DefaultSettings("audit-ingest"))
	}
	return &HTTPStore{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   client,
		breaker:  cb,
	}, nil
}

// Breaker returns the circuit breaker guarding the endpoint.
func (s *HTTPStore) Breaker() *breaker.Breaker { return s.breaker }

// Save implements Store.
func (s *HTTPStore) Save(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.post(ctx, body)
	})
	return err
}

func (s *HTTPStore) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post audit event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrStoreRejected, resp.StatusCode)
	}
	return nil
}
