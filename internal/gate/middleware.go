// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package gate

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/auth"
	"github.com/tomtom215/ndisgate/internal/logging"
)

// DefaultSignInPath is where browsers are sent on deny.
const DefaultSignInPath = "/auth/signin"

// MiddlewareConfig configures how decisions are rendered.
type MiddlewareConfig struct {
	SignInPath string
}

// denyResponse is the JSON body for API callers.
type denyResponse struct {
	Error    string `json:"error"`
	Decision string `json:"decision"`
}

// Middleware authorizes each request with g. Allowed requests continue with
// the Identity in their context; denied requests are redirected to the
// sign-in page, or answered 401/403 when the caller expects JSON.
func Middleware(g *Gate, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	signIn := cfg.SignInPath
	if signIn == "" {
		signIn = DefaultSignInPath
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := g.Check(r)
			if result.Decision.Allowed() {
				if result.Identity != nil {
					ctx := auth.ContextWithIdentity(r.Context(), result.Identity)
					ctx = logging.ContextWithUserID(ctx, result.Identity.ID)
					r = r.WithContext(ctx)
				}
				next.ServeHTTP(w, r)
				return
			}

			setDenyHeaders(w)
			if wantsJSON(r) {
				writeDenyJSON(w, result.Decision)
				return
			}
			http.Redirect(w, r, signIn, http.StatusTemporaryRedirect)
		})
	}
}

func setDenyHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// wantsJSON reports whether the caller is a machine client.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(CanonicalPath(r.URL.Path), "/api/") {
		return true
	}
	if authHeader := r.Header.Get("Authorization"); len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// StatusFor returns the HTTP status for a deny decision.
func StatusFor(d Decision) int {
	switch d {
	case Allow:
		return http.StatusOK
	case DenyInsufficientRole:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

func writeDenyJSON(w http.ResponseWriter, d Decision) {
	status := StatusFor(d)
	body := denyResponse{Error: "unauthorized", Decision: d.String()}
	if status == http.StatusForbidden {
		body.Error = "forbidden"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="ndisgate"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn().Err(err).Msg("Failed to write deny response")
	}
}
