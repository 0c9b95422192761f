// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/ndisgate/internal/audit"
	"github.com/tomtom215/ndisgate/internal/auth"
	"github.com/tomtom215/ndisgate/internal/authz"
	"github.com/tomtom215/ndisgate/internal/logging"
	"github.com/tomtom215/ndisgate/internal/metrics"
)

// Default policies for authenticated requests on unmapped paths.
const (
	PolicyAllowAuthenticated = "allow_authenticated"
	PolicyDeny               = "deny"
)

// Audit details.
const (
	detailNoCredential      = "no credential"
	detailInvalidCredential = "invalid credential"
	detailInternalError     = "internal error"
)

// IdentityResolver resolves the caller of a request.
type IdentityResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*auth.Identity, error)
}

// Deps are the collaborators of a Gate.
type Deps struct {
	Resolver  IdentityResolver
	Evaluator *authz.Evaluator

	// Audit is optional; nil disables audit events.
	Audit audit.Recorder

	// AccessLogger is optional; defaults to the global logger.
	AccessLogger *logging.AccessLogger
}

// Config configures a Gate.
type Config struct {
	PublicPaths    []string
	PublicPrefixes []string
	Routes         []RouteRule

	// DefaultPolicy applies to authenticated requests on unmapped paths.
	DefaultPolicy string

	// LogAllowed also records ACCESS_GRANTED events.
	LogAllowed bool

	// Source extracts the client address; defaults to audit.SourceFromRequest.
	Source audit.SourceFunc
}

// DefaultConfig returns the built-in public paths and route table.
func DefaultConfig() Config {
	return Config{
		PublicPaths:    []string{"/"},
		PublicPrefixes: []string{"/auth/", "/api/auth/"},
		Routes:         DefaultRoutes(),
		DefaultPolicy:  PolicyAllowAuthenticated,
	}
}

// Gate decides whether each request may proceed. It holds no per-request
// state and is safe for concurrent use.
type Gate struct {
	resolver  IdentityResolver
	evaluator *authz.Evaluator
	recorder  audit.Recorder
	accessLog *logging.AccessLogger

	public        *PublicMatcher
	routes        *RouteTable
	defaultPolicy string
	logAllowed    bool
	source        audit.SourceFunc
}

// New creates a Gate.
func New(deps Deps, cfg Config) (*Gate, error) {
	if deps.Resolver == nil {
		return nil, errors.New("gate: resolver is required")
	}
	if deps.Evaluator == nil {
		return nil, errors.New("gate: evaluator is required")
	}

	switch cfg.DefaultPolicy {
	case "":
		cfg.DefaultPolicy = PolicyAllowAuthenticated
	case PolicyAllowAuthenticated, PolicyDeny:
	default:
		return nil, fmt.Errorf("gate: unknown default policy %q", cfg.DefaultPolicy)
	}

	routes, err := NewRouteTable(cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}

	accessLog := deps.AccessLogger
	if accessLog == nil {
		accessLog = logging.NewAccessLogger()
	}
	source := cfg.Source
	if source == nil {
		source = audit.SourceFromRequest
	}

	return &Gate{
		resolver:      deps.Resolver,
		evaluator:     deps.Evaluator,
		recorder:      deps.Audit,
		accessLog:     accessLog,
		public:        NewPublicMatcher(cfg.PublicPaths, cfg.PublicPrefixes),
		routes:        routes,
		defaultPolicy: cfg.DefaultPolicy,
		logAllowed:    cfg.LogAllowed,
		source:        source,
	}, nil
}

// Authorize returns only the decision for r.
func (g *Gate) Authorize(r *http.Request) Decision {
	return g.Check(r).Decision
}

// Check authorizes r. It never panics and never allows on internal failure.
func (g *Gate) Check(r *http.Request) (result Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.GatePanicsRecovered.Inc()
			logging.Ctx(r.Context()).Error().
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Msg("Recovered panic in authorization gate")
			result = Result{Decision: DenyInvalidCredential, Resource: result.Resource, Reason: detailInternalError}
			g.finishAfterPanic(r, result)
		}
		metrics.RecordGateDecision(result.Decision.String(), result.Resource, time.Since(start))
	}()

	result = g.evaluate(r)
	g.finish(r, result)
	return result
}

// evaluate runs public check, resolve, map, evaluate in that order.
func (g *Gate) evaluate(r *http.Request) Result {
	path := CanonicalPath(r.URL.Path)

	if g.public.IsPublic(path) {
		return Result{Decision: Allow, Public: true}
	}

	identity, err := g.resolver.Resolve(r.Context(), r)
	switch {
	case errors.Is(err, auth.ErrNoCredentials):
		return Result{Decision: DenyNoCredential, Reason: detailNoCredential}
	case err != nil || identity == nil:
		return Result{Decision: DenyInvalidCredential, Reason: detailInvalidCredential}
	}

	resource, mapped := g.routes.Lookup(path)
	if !mapped {
		if g.defaultPolicy == PolicyDeny {
			return Result{
				Decision: DenyInsufficientRole,
				Identity: identity,
				Reason:   fmt.Sprintf("role %s denied access to unmapped path %s", identity.RoleLabel(), path),
			}
		}
		return Result{Decision: Allow, Identity: identity}
	}

	if !g.evaluator.IsAllowed(identity.Role, resource, ActionRead) {
		return Result{
			Decision: DenyInsufficientRole,
			Identity: identity,
			Resource: resource,
			Reason:   fmt.Sprintf("role %s denied access to %s", identity.RoleLabel(), resource),
		}
	}
	return Result{Decision: Allow, Identity: identity, Resource: resource}
}

// finish writes the access log line and the audit event for result.
func (g *Gate) finish(r *http.Request, result Result) {
	if result.Public {
		return
	}
	src := g.source(r)

	event := &logging.AccessEvent{
		Decision:  result.Decision.String(),
		Path:      CanonicalPath(r.URL.Path),
		Resource:  result.Resource,
		IPAddress: src.IPAddress,
		UserAgent: src.UserAgent,
		Reason:    result.Reason,
	}
	if result.Identity != nil {
		event.UserID = result.Identity.ID
		event.Email = result.Identity.Email
		event.Role = result.Identity.RoleLabel()
	}
	g.accessLog.LogDecision(event)

	switch {
	case !result.Decision.Allowed():
		g.record(r, src, result, audit.ActionAccessDenied)
	case g.logAllowed:
		g.record(r, src, result, audit.ActionAccessGranted)
	}
}

// finishAfterPanic reports a recovered failure. The access log or source
// extractor may be what panicked, so a second panic is dropped.
func (g *Gate) finishAfterPanic(r *http.Request, result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().Str("panic", fmt.Sprint(rec)).Msg("Failed to report recovered gate failure")
		}
	}()
	g.finish(r, result)
}

// record hands the event to the audit sink. A misbehaving recorder is
// logged and ignored.
func (g *Gate) record(r *http.Request, src audit.Source, result Result, action audit.Action) {
	if g.recorder == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().Str("panic", fmt.Sprint(rec)).Msg("Recovered panic in audit recorder")
		}
	}()

	var userID string
	if result.Identity != nil {
		userID = result.Identity.ID
	}
	details := result.Reason
	if action == audit.ActionAccessGranted {
		details = "access granted"
		if result.Identity != nil {
			details = fmt.Sprintf("role %s granted access to %s", result.Identity.RoleLabel(), CanonicalPath(r.URL.Path))
		}
	}

	g.recorder.Record(&audit.Event{
		UserID:    audit.UserIDPtr(userID),
		Action:    action,
		Resource:  CanonicalPath(r.URL.Path),
		Details:   details,
		IPAddress: src.IPAddress,
		UserAgent: src.UserAgent,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}
