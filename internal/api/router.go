// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/ndisgate/internal/authz"
	"github.com/tomtom215/ndisgate/internal/breaker"
	"github.com/tomtom215/ndisgate/internal/gate"
	"github.com/tomtom215/ndisgate/internal/middleware"
)

// Deps are the collaborators wired into the router.
type Deps struct {
	Gate       *gate.Gate
	SignInPath string

	Catalog  *authz.Catalog
	Policies *authz.PolicyHandlers

	// Breakers are reported by /healthz.
	Breakers []*breaker.Breaker

	AuditStats AuditStatser
	AuditQuery AuditQuerier
	Latency    *middleware.LatencyMonitor

	// Upstream receives allowed requests for paths the gate does not own.
	// Nil answers them with 404.
	Upstream http.Handler

	Middleware *ChiMiddlewareConfig
	Version    string
}

// NewRouter builds the HTTP handler for the gate.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Gate == nil {
		return nil, errors.New("api: gate is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("api: catalog is required")
	}
	if deps.Policies == nil {
		return nil, errors.New("api: policy handlers are required")
	}
	policies := deps.Policies
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	h := &Handler{
		catalog:    deps.Catalog,
		breakers:   deps.Breakers,
		auditStats: deps.AuditStats,
		auditQuery: deps.AuditQuery,
		latency:    deps.Latency,
		version:    version,
		startTime:  time.Now(),
	}
	mw := NewChiMiddleware(deps.Middleware)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(CanonicalPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	if deps.Latency != nil {
		r.Use(deps.Latency.Middleware)
	}
	r.Use(mw.CORS())
	r.Use(mw.RateLimit())

	// Operational endpoints are never authorized.
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(gate.Middleware(deps.Gate, gate.MiddlewareConfig{SignInPath: deps.SignInPath}))

		r.Group(func(r chi.Router) {
			r.Use(APISecurityHeaders)

			r.Get("/api/me", h.Me)

			r.Get("/admin/api/roles", policies.ListRoles)
			r.Get("/admin/api/roles/{role}", func(w http.ResponseWriter, req *http.Request) {
				policies.GetRolePermissions(w, req, chi.URLParam(req, "role"))
			})
			r.Get("/admin/api/check", policies.CheckPermission)
			r.Get("/admin/api/policies", policies.GetPolicies)
			r.Get("/admin/api/stats", h.Stats)
			r.Get("/admin/api/audit", h.AuditEvents)
		})

		if deps.Upstream != nil {
			r.Handle("/*", deps.Upstream)
		} else {
			r.HandleFunc("/*", h.notFound)
		}
	})

	return r, nil
}
