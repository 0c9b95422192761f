// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/tomtom215/ndisgate/internal/auth"
	"github.com/tomtom215/ndisgate/internal/logging"
)

// Identity headers forwarded to the upstream application.
const (
	HeaderUserID    = "X-Gate-User-Id"
	HeaderUserEmail = "X-Gate-User-Email"
	HeaderUserRole  = "X-Gate-User-Role"
)

// NewUpstreamProxy returns a reverse proxy to rawURL. Requests reaching it
// have already been allowed by the gate; the resolved identity is passed on
// in the X-Gate-User-* headers, replacing anything the client sent.
func NewUpstreamProxy(rawURL string) (http.Handler, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("upstream URL must use http or https, got %q", target.Scheme)
	}
	if target.Host == "" {
		return nil, errors.New("upstream URL must include a host")
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host

			pr.Out.Header.Del(HeaderUserID)
			pr.Out.Header.Del(HeaderUserEmail)
			pr.Out.Header.Del(HeaderUserRole)
			if identity := auth.IdentityFromContext(pr.In.Context()); identity != nil {
				pr.Out.Header.Set(HeaderUserID, identity.ID)
				pr.Out.Header.Set(HeaderUserRole, identity.RoleLabel())
				if identity.Email != "" {
					pr.Out.Header.Set(HeaderUserEmail, identity.Email)
				}
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Ctx(r.Context()).Error().
				Err(err).
				Str("path", r.URL.Path).
				Msg("Upstream request failed")
			respondError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Upstream application unavailable", nil)
		},
	}, nil
}
