// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/audit"
	"github.com/tomtom215/ndisgate/internal/auth"
	"github.com/tomtom215/ndisgate/internal/authz"
	"github.com/tomtom215/ndisgate/internal/breaker"
	"github.com/tomtom215/ndisgate/internal/gate"
	"github.com/tomtom215/ndisgate/internal/middleware"
)

// roleProvider resolves tokens of the form "role:<ROLE>".
type roleProvider struct{}

func (roleProvider) Name() string { return "test" }

func (roleProvider) ValidateToken(_ context.Context, token string) (*auth.ProviderUser, error) {
	role, ok := strings.CutPrefix(token, "role:")
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.ProviderUser{
		ID:           "user-" + strings.ToLower(role),
		Email:        strings.ToLower(role) + "@example.com",
		UserMetadata: map[string]interface{}{"role": role},
	}, nil
}

type discardRecorder struct{}

func (discardRecorder) Record(*audit.Event) {}

type routerOptions struct {
	upstream   http.Handler
	middleware *ChiMiddlewareConfig
	store      *audit.MemoryStore
	breakers   []*breaker.Breaker
}

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()
	catalog, enforcer, err := authz.LoadPolicy(nil)
	if err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}
	g, err := gate.New(gate.Deps{
		Resolver:  auth.NewResolver(auth.ResolverConfig{Provider: roleProvider{}, Timeout: time.Second}),
		Evaluator: authz.NewEvaluator(catalog),
		Audit:     discardRecorder{},
	}, gate.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create gate: %v", err)
	}

	mw := opts.middleware
	if mw == nil {
		mw = DefaultChiMiddlewareConfig()
		mw.RateLimitDisabled = true
	}
	deps := Deps{
		Gate:       g,
		Catalog:    catalog,
		Policies:   authz.NewPolicyHandlers(catalog, enforcer),
		Breakers:   opts.breakers,
		Latency:    middleware.NewLatencyMonitor(100, 0),
		Upstream:   opts.upstream,
		Middleware: mw,
		Version:    "test",
	}
	if opts.store != nil {
		deps.AuditQuery = opts.store
	}
	router, err := NewRouter(deps)
	if err != nil {
		t.Fatalf("Failed to create router: %v", err)
	}
	return router
}

func do(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *APIError       `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	if resp.Status != "success" {
		t.Fatalf("status = %q, want success (error %+v)", resp.Status, resp.Error)
	}
	if err := json.Unmarshal(resp.Data, data); err != nil {
		t.Fatalf("Failed to decode data %q: %v", resp.Data, err)
	}
}

func TestNewRouterRequiresDeps(t *testing.T) {
	if _, err := NewRouter(Deps{}); err == nil {
		t.Error("NewRouter() without a gate should fail")
	}
}

func TestHealthIsNotAuthorized(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec := do(router, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
	var health HealthStatus
	decode(t, rec, &health)
	if health.Status != "healthy" || health.Version != "test" {
		t.Errorf("health = %+v", health)
	}
}

func TestHealthDegradedWhenBreakerOpen(t *testing.T) {
	s := breaker.DefaultSettings("api-test-open")
	s.MinRequests = 1
	s.FailureRatio = 0.5
	b := breaker.New(s)
	_, _ = b.Execute(func() (interface{}, error) { return nil, errors.New("down") })

	router := newTestRouter(t, routerOptions{breakers: []*breaker.Breaker{b}})
	var health HealthStatus
	decode(t, do(router, "/healthz", ""), &health)
	if health.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", health.Status)
	}
	if len(health.Breakers) != 1 || health.Breakers[0].State != "open" {
		t.Errorf("Breakers = %+v", health.Breakers)
	}
}

func TestMetricsIsNotAuthorized(t *testing.T) {
	router := newTestRouter(t, routerOptions{})
	_ = do(router, "/api/me", "")
	rec := do(router, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gate_decisions_total") {
		t.Error("metrics output should include gate collectors")
	}
}

func TestMe(t *testing.T) {
	router := newTestRouter(t, routerOptions{})

	rec := do(router, "/api/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous GET /api/me status = %d, want 401", rec.Code)
	}

	rec = do(router, "/api/me", "role:FINANCE")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/me status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	var me MeResponse
	decode(t, rec, &me)
	if me.ID != "user-finance" || me.Role != "FINANCE" {
		t.Errorf("me = %+v", me)
	}
	found := false
	for _, r := range me.Resources {
		if r == "finance" {
			found = true
		}
	}
	if !found {
		t.Errorf("Resources = %v, want finance included", me.Resources)
	}
}

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	router := newTestRouter(t, routerOptions{store: audit.NewMemoryStore(100)})

	paths := []string{
		"/admin/api/roles",
		"/admin/api/roles/FINANCE",
		"/admin/api/check?role=FINANCE&resource=finance&action=read",
		"/admin/api/policies",
		"/admin/api/stats",
		"/admin/api/audit",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			if rec := do(router, path, "role:SCHEDULER"); rec.Code != http.StatusForbidden {
				t.Errorf("SCHEDULER status = %d, want 403", rec.Code)
			}
			if rec := do(router, path, "role:ADMIN"); rec.Code != http.StatusOK {
				t.Errorf("ADMIN status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAdminUnknownRole(t *testing.T) {
	router := newTestRouter(t, routerOptions{})
	if rec := do(router, "/admin/api/roles/JANITOR", "role:ADMIN"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAuditEndpoint(t *testing.T) {
	store := audit.NewMemoryStore(100)
	for i := 0; i < 3; i++ {
		_ = store.Save(context.Background(), &audit.Event{
			ID:        "evt",
			Action:    audit.ActionAccessDenied,
			Resource:  "/finance",
			IPAddress: audit.Unknown,
			UserAgent: audit.Unknown,
			Timestamp: time.Now(),
		})
	}
	router := newTestRouter(t, routerOptions{store: store})

	rec := do(router, "/admin/api/audit?action=ACCESS_DENIED&limit=2", "role:ADMIN")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Count int `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}

	tests := []string{
		"/admin/api/audit?limit=5000",
		"/admin/api/audit?limit=abc",
		"/admin/api/audit?action=DELETED",
		"/admin/api/audit?resource=finance",
	}
	for _, path := range tests {
		if rec := do(router, path, "role:ADMIN"); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, rec.Code)
		}
	}
}

func TestAuditEndpointWithoutQueryableStore(t *testing.T) {
	router := newTestRouter(t, routerOptions{})
	if rec := do(router, "/admin/api/audit", "role:ADMIN"); rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestBrowserDenyRedirects(t *testing.T) {
	router := newTestRouter(t, routerOptions{})
	rec := do(router, "/finance/invoices", "")
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != gate.DefaultSignInPath {
		t.Errorf("Location = %q, want %q", loc, gate.DefaultSignInPath)
	}
}

func TestAllowedUnownedPathWithoutUpstream(t *testing.T) {
	router := newTestRouter(t, routerOptions{})
	if rec := do(router, "/support/clients", "role:SUPPORT_WORKER"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitRequests = 2
	mw.RateLimitWindow = time.Minute
	router := newTestRouter(t, routerOptions{middleware: mw})

	for i := 0; i < 2; i++ {
		if rec := do(router, "/healthz", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
	if rec := do(router, "/healthz", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", rec.Code)
	}
}

func TestEndpointClass(t *testing.T) {
	tests := map[string]string{
		"/admin/api/roles": "admin_api",
		"/api/me":          "api",
		"/finance/x":       "upstream",
		"/":                "upstream",
	}
	for path, want := range tests {
		if got := endpointClass(path); got != want {
			t.Errorf("endpointClass(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	mw := DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = []string{"https://app.example.com"}
	mw.RateLimitDisabled = true
	router := newTestRouter(t, routerOptions{middleware: mw})

	req := httptest.NewRequest(http.MethodOptions, "/api/me", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
