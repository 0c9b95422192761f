// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/ndisgate/internal/logging"
	"github.com/tomtom215/ndisgate/internal/metrics"
)

// DefaultResolveTimeout bounds a provider call when none is configured.
const DefaultResolveTimeout = 5 * time.Second

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Provider IdentityProvider

	// Cache is optional.
	Cache IdentityCache

	// Timeout bounds each provider call.
	Timeout time.Duration
}

// Resolver turns a request into an Identity.
type Resolver struct {
	provider IdentityProvider
	cache    IdentityCache
	timeout  time.Duration
}

// NewResolver creates a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &Resolver{
		provider: cfg.Provider,
		cache:    cfg.Cache,
		timeout:  timeout,
	}
}

type validation struct {
	user *ProviderUser
	err  error
}

// Resolve extracts the request's credential and asks the provider who it
// belongs to. It returns ErrNoCredentials without contacting the provider
// when the request carries no token. Any other error means the token could
// not be turned into an identity, whether rejected or unverifiable.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*Identity, error) {
	token, source := ExtractCredential(req)
	if token == "" {
		return nil, ErrNoCredentials
	}
	if r.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}

	key := TokenKey(token)
	if r.cache != nil {
		if identity, ok := r.cache.Get(ctx, key); ok && !identity.Expired(time.Now()) {
			return identity, nil
		}
	}

	start := time.Now()
	user, err := r.validate(ctx, token)
	elapsed := time.Since(start)

	if err != nil {
		log := logging.Ctx(ctx)
		if errors.Is(err, ErrProviderUnavailable) {
			metrics.RecordIdentityValidation(r.provider.Name(), "unavailable", elapsed)
			log.Warn().
				Err(err).
				Str("provider", r.provider.Name()).
				Str("source", string(source)).
				Dur("elapsed", elapsed).
				Msg("Identity provider unavailable")
		} else {
			metrics.RecordIdentityValidation(r.provider.Name(), "invalid", elapsed)
			log.Debug().
				Str("error", logging.SanitizeError(err.Error())).
				Str("provider", r.provider.Name()).
				Str("source", string(source)).
				Msg("Credential rejected")
		}
		return nil, err
	}
	if user == nil || user.ID == "" {
		metrics.RecordIdentityValidation(r.provider.Name(), "invalid", elapsed)
		return nil, fmt.Errorf("%w: provider returned no user", ErrInvalidCredentials)
	}
	metrics.RecordIdentityValidation(r.provider.Name(), "valid", elapsed)

	if user.ExpiresAt.IsZero() {
		user.ExpiresAt = tokenExpiry(token)
	}
	identity := toIdentity(user)
	if r.cache != nil && !identity.Expired(time.Now()) {
		r.cache.Set(ctx, key, identity)
	}
	return identity, nil
}

// validate runs the provider call under the resolver timeout. The call runs
// on its own goroutine so a provider that ignores ctx still cannot hold the
// request past the deadline, and a provider panic becomes an error.
func (r *Resolver) validate(ctx context.Context, token string) (*ProviderUser, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan validation, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- validation{err: fmt.Errorf("%w: provider panic: %v", ErrProviderUnavailable, rec)}
			}
		}()
		user, err := r.provider.ValidateToken(ctx, token)
		done <- validation{user: user, err: err}
	}()

	select {
	case v := <-done:
		if v.err != nil && errors.Is(v.err, context.DeadlineExceeded) && !errors.Is(v.err, ErrProviderUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, v.err)
		}
		return v.user, v.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
	}
}
