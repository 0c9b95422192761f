// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/ndisgate/internal/api"
	"github.com/tomtom215/ndisgate/internal/audit"
	"github.com/tomtom215/ndisgate/internal/authz"
	"github.com/tomtom215/ndisgate/internal/config"
	"github.com/tomtom215/ndisgate/internal/logging"
	"github.com/tomtom215/ndisgate/internal/middleware"
	"github.com/tomtom215/ndisgate/internal/supervisor"
	"github.com/tomtom215/ndisgate/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("idp_provider", cfg.Identity.Provider).
		Str("identity_cache", cfg.Identity.CacheMode).
		Str("audit_store", cfg.Audit.Store).
		Str("default_policy", cfg.Gate.DefaultPolicy).
		Msg("Starting NDIS gate")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS contains a wildcard outside development")
	}

	catalog, enforcer, err := authz.LoadPolicy(&authz.EnforcerConfig{
		ModelPath:  cfg.Authz.ModelPath,
		PolicyPath: cfg.Authz.PolicyPath,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load permission catalog")
	}
	logging.Info().Int("roles", len(catalog.Roles())).Msg("Permission catalog loaded")

	identity, err := buildIdentity(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize identity resolver")
	}
	defer func() {
		if identity.cache != nil {
			if err := identity.cache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing identity cache")
			}
		}
	}()

	auditing, err := buildAudit(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize audit sink")
	}

	g, err := buildGate(cfg, catalog, identity.resolver, auditing.sink)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize gate")
	}

	var upstream http.Handler
	if cfg.Server.Upstream != "" {
		upstream, err = api.NewUpstreamProxy(cfg.Server.Upstream)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize upstream proxy")
		}
		logging.Info().Str("upstream", cfg.Server.Upstream).Msg("Proxying allowed requests upstream")
	} else {
		logging.Warn().Msg("UPSTREAM_URL not set; allowed requests for unowned paths will receive 404")
	}

	deps := api.Deps{
		Gate:       g,
		SignInPath: cfg.Gate.SignInPath,
		Catalog:    catalog,
		Policies:   authz.NewPolicyHandlers(catalog, enforcer),
		Breakers:   append(identity.breakers, auditing.breakers...),
		AuditStats: auditing.sink,
		Latency:    middleware.NewLatencyMonitor(1000, cfg.Server.WriteTimeout/2),
		Upstream:   upstream,
		Middleware: chiMiddlewareConfig(cfg),
		Version:    version,
	}
	if auditing.query != nil {
		deps.AuditQuery = auditing.query
	}
	router, err := api.NewRouter(deps)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build router")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if identity.gc != nil {
		tree.AddBackgroundService(services.NewCacheGCService(identity.gc, cfg.Supervisor.CacheGCInterval))
		logging.Info().Dur("interval", cfg.Supervisor.CacheGCInterval).Msg("Identity cache GC service added")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	runTree(ctx, tree, auditing.sink)
}

// runTree serves the tree until ctx is canceled and the tree has stopped,
// then drains the audit sink. The listener is closed by then, so no
// further events can be queued.
func runTree(ctx context.Context, tree *supervisor.SupervisorTree, sink *audit.Sink) {
	// suture sends exactly one value and never closes the channel.
	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err := sink.Close(); err != nil {
		logging.Error().Err(err).Msg("Error draining audit sink")
	}
	stats := sink.Stats()
	logging.Info().
		Uint64("audit_written", stats.Written).
		Uint64("audit_failed", stats.Failed).
		Uint64("audit_dropped", stats.Dropped).
		Msg("Gate stopped gracefully")
}
