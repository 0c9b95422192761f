// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/ndisgate/internal/audit"
	"github.com/tomtom215/ndisgate/internal/auth"
	"github.com/tomtom215/ndisgate/internal/authz"
	"github.com/tomtom215/ndisgate/internal/breaker"
	"github.com/tomtom215/ndisgate/internal/middleware"
	"github.com/tomtom215/ndisgate/internal/validation"
)

// AuditStatser reports audit sink counters. *audit.Sink satisfies it.
type AuditStatser interface {
	Stats() audit.Stats
}

// AuditQuerier reads back recorded events. *audit.MemoryStore satisfies it.
type AuditQuerier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// Handler serves the gate-owned endpoints.
type Handler struct {
	catalog    *authz.Catalog
	breakers   []*breaker.Breaker
	auditStats AuditStatser
	auditQuery AuditQuerier
	latency    *middleware.LatencyMonitor
	version    string
	startTime  time.Time
}

type breakerStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// HealthStatus is the /healthz body.
type HealthStatus struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	Breakers      []breakerStatus `json:"breakers"`
	AuditQueued   int             `json:"audit_queued"`
}

// Health reports liveness. An open breaker marks the gate degraded but the
// endpoint still answers 200: the gate keeps serving, failing closed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Breakers:      make([]breakerStatus, 0, len(h.breakers)),
	}
	for _, b := range h.breakers {
		state := b.State()
		if state == "open" {
			status.Status = "degraded"
		}
		status.Breakers = append(status.Breakers, breakerStatus{Name: b.Name(), State: state})
	}
	if h.auditStats != nil {
		status.AuditQueued = h.auditStats.Stats().Queued
	}
	respondSuccess(w, r, status)
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email,omitempty"`
	Role      string   `json:"role"`
	Resources []string `json:"resources"`
	Actions   []string `json:"actions"`
}

// Me echoes the identity the gate resolved for this request.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "No authenticated identity", nil)
		return
	}
	perm := h.catalog.PermissionsFor(identity.Role)
	respondSuccess(w, r, MeResponse{
		ID:        identity.ID,
		Email:     identity.Email,
		Role:      identity.RoleLabel(),
		Resources: perm.Resources(),
		Actions:   perm.Actions(),
	})
}

// StatsResponse is the /admin/api/stats body.
type StatsResponse struct {
	Audit  *audit.Stats            `json:"audit,omitempty"`
	Routes []middleware.RouteStats `json:"routes"`
}

// Stats reports audit delivery counters and per-route latency.
// GET /admin/api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Routes: []middleware.RouteStats{}}
	if h.auditStats != nil {
		s := h.auditStats.Stats()
		resp.Audit = &s
	}
	if h.latency != nil {
		resp.Routes = h.latency.Stats()
	}
	respondSuccess(w, r, resp)
}

type auditQueryRequest struct {
	Action   string `validate:"omitempty,oneof=ACCESS_DENIED ACCESS_GRANTED"`
	UserID   string `validate:"omitempty,max=128"`
	Resource string `validate:"omitempty,startswith=/"`
	Limit    int    `validate:"min=1,max=1000"`
}

// AuditEvents lists recent events when the audit store can be queried.
// GET /admin/api/audit?action=ACCESS_DENIED&user_id=...&resource=/finance&limit=50
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.auditQuery == nil {
		respondError(w, http.StatusNotImplemented, "NOT_AVAILABLE", "Audit store does not support queries", nil)
		return
	}

	q := r.URL.Query()
	req := auditQueryRequest{
		Action:   q.Get("action"),
		UserID:   q.Get("user_id"),
		Resource: q.Get("resource"),
		Limit:    100,
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		req.Limit = n
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	events, err := h.auditQuery.Query(r.Context(), audit.QueryFilter{
		Action:   audit.Action(req.Action),
		UserID:   req.UserID,
		Resource: req.Resource,
		Limit:    req.Limit,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "Failed to query audit events", err)
		return
	}
	respondSuccess(w, r, map[string]interface{}{"events": events, "count": len(events)})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}
