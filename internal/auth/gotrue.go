// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/breaker"
)

const (
	// GoTrueUserPath is the endpoint returning the user owning a token.
	GoTrueUserPath = "/auth/v1/user"

	maxUserResponseBytes = 1 << 20
)

// GoTrueConfig configures a GoTrueProvider.
type GoTrueConfig struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co
	URL string

	// APIKey is sent as the apikey header (service role key).
	APIKey string

	// Timeout bounds each validation call. Defaults to 5s.
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Breaker overrides the default circuit breaker.
	Breaker *breaker.Breaker
}

// GoTrueProvider validates tokens against a hosted GoTrue user endpoint.
type GoTrueProvider struct {
	userURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	breaker *breaker.Breaker
}

// NewGoTrueProvider creates a provider for the given project.
func NewGoTrueProvider(cfg GoTrueConfig) (*GoTrueProvider, error) {
	if cfg.URL == "" {
		return nil, errors.New("gotrue: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gotrue: API key is required")
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
		s := breaker.DefaultSettings("identity-gotrue")
		s.IsSuccessful = tokenRejectionIsSuccess
		cb = breaker.New(s)
	}

	return &GoTrueProvider{
		userURL: strings.TrimRight(cfg.URL, "/") + GoTrueUserPath,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		client:  client,
		breaker: cb,
	}, nil
}

// tokenRejectionIsSuccess keeps rejected tokens from tripping the breaker;
// only outages should.
func tokenRejectionIsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrExpiredCredentials)
}

// Name implements IdentityProvider.
func (p *GoTrueProvider) Name() string { return "gotrue" }

// Breaker returns the circuit breaker guarding the user endpoint.
func (p *GoTrueProvider) Breaker() *breaker.Breaker { return p.breaker }

// ValidateToken implements IdentityProvider.
func (p *GoTrueProvider) ValidateToken(ctx context.Context, token string) (*ProviderUser, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	user, err := breaker.Do(p.breaker, func() (*ProviderUser, error) {
		return p.fetchUser(ctx, token)
	})
	if err != nil {
		if breaker.IsRejected(err) {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return nil, err
	}
	return user, nil
}

func (p *GoTrueProvider) fetchUser(ctx context.Context, token string) (*ProviderUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUserResponseBytes))
		return nil, fmt.Errorf("%w: provider returned %d", ErrInvalidCredentials, resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Malformed or unknown tokens come back as 400/404/422.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUserResponseBytes))
		return nil, fmt.Errorf("%w: provider returned %d", ErrInvalidCredentials, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: provider returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var user ProviderUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserResponseBytes)).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrProviderUnavailable, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user has no id", ErrInvalidCredentials)
	}
	return &user, nil
}
