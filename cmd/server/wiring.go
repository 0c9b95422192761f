// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package main

import (
	"fmt"

	"github.com/tomtom215/ndisgate/internal/api"
	"github.com/tomtom215/ndisgate/internal/audit"
	"github.com/tomtom215/ndisgate/internal/auth"
	"github.com/tomtom215/ndisgate/internal/authz"
	"github.com/tomtom215/ndisgate/internal/breaker"
	"github.com/tomtom215/ndisgate/internal/config"
	"github.com/tomtom215/ndisgate/internal/gate"
	"github.com/tomtom215/ndisgate/internal/logging"
	"github.com/tomtom215/ndisgate/internal/supervisor/services"
)

// memoryAuditCapacity bounds the in-process audit store.
const memoryAuditCapacity = 10000

type identityParts struct {
	resolver *auth.Resolver
	cache    auth.IdentityCache
	gc       services.GCRunner
	breakers []*breaker.Breaker
}

func buildIdentity(cfg *config.Config) (*identityParts, error) {
	parts := &identityParts{}

	var provider auth.IdentityProvider
	switch cfg.Identity.Provider {
	case config.ProviderGoTrue:
		p, err := auth.NewGoTrueProvider(auth.GoTrueConfig{
			URL:     cfg.Identity.URL,
			APIKey:  cfg.Identity.APIKey,
			Timeout: cfg.Identity.Timeout,
		})
		if err != nil {
			return nil, err
		}
		parts.breakers = append(parts.breakers, p.Breaker())
		provider = p
	case config.ProviderJWT:
		p, err := auth.NewJWTProvider(cfg.Identity.JWTSecret, cfg.Identity.JWTAudience)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Identity.Provider)
	}

	switch cfg.Identity.CacheMode {
	case config.CacheMemory:
		parts.cache = auth.NewMemoryIdentityCache(cfg.Identity.CacheSize, cfg.Identity.CacheTTL)
	case config.CacheBadger:
		c, err := auth.NewBadgerIdentityCache(cfg.Identity.CachePath, cfg.Identity.CacheTTL)
		if err != nil {
			return nil, err
		}
		parts.cache = c
		parts.gc = c
	}

	parts.resolver = auth.NewResolver(auth.ResolverConfig{
		Provider: provider,
		Cache:    parts.cache,
		Timeout:  cfg.Identity.Timeout,
	})
	logging.Info().
		Str("provider", provider.Name()).
		Str("cache", cfg.Identity.CacheMode).
		Dur("timeout", cfg.Identity.Timeout).
		Msg("Identity resolver initialized")
	return parts, nil
}

type auditParts struct {
	sink     *audit.Sink
	query    api.AuditQuerier
	breakers []*breaker.Breaker
}

func buildAudit(cfg *config.Config) (*auditParts, error) {
	parts := &auditParts{}

	var store audit.Store
	switch cfg.Audit.Store {
	case config.AuditStoreHTTP:
		s, err := audit.NewHTTPStore(audit.HTTPStoreConfig{
			Endpoint: cfg.Audit.Endpoint,
			APIKey:   cfg.Audit.APIKey,
			Timeout:  cfg.Audit.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		parts.breakers = append(parts.breakers, s.Breaker())
		store = s
	case config.AuditStoreMemory:
		s := audit.NewMemoryStore(memoryAuditCapacity)
		parts.query = s
		store = s
	default:
		store = audit.NewLogStore()
	}

	parts.sink = audit.NewSink(store, &audit.Config{
		Enabled:      cfg.Audit.Enabled,
		BufferSize:   cfg.Audit.BufferSize,
		WriteTimeout: cfg.Audit.WriteTimeout,
	})
	logging.Info().
		Bool("enabled", cfg.Audit.Enabled).
		Str("store", cfg.Audit.Store).
		Bool("log_allowed", cfg.Audit.LogAllowed).
		Msg("Audit sink initialized")
	return parts, nil
}

func buildGate(cfg *config.Config, catalog *authz.Catalog, resolver *auth.Resolver, sink *audit.Sink) (*gate.Gate, error) {
	entries, err := cfg.Gate.RouteEntries()
	if err != nil {
		return nil, err
	}
	routes := make([]gate.RouteRule, 0, len(entries))
	for _, e := range entries {
		routes = append(routes, gate.RouteRule{Prefix: e.Prefix, Resource: e.Resource})
	}

	return gate.New(gate.Deps{
		Resolver:  resolver,
		Evaluator: authz.NewEvaluator(catalog),
		Audit:     sink,
	}, gate.Config{
		PublicPaths:    cfg.Gate.PublicPaths,
		PublicPrefixes: cfg.Gate.PublicPrefixes,
		Routes:         routes,
		DefaultPolicy:  cfg.Gate.DefaultPolicy,
		LogAllowed:     cfg.Audit.LogAllowed,
		Source:         audit.NewSourceFunc(cfg.Security.TrustedProxies),
	})
}

func chiMiddlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mw.RateLimitRequests = cfg.Security.RateLimitReqs
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled
	return mw
}
