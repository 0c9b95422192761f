// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"net/http"
	"strings"
)

// Credential locations, in priority order.
const (
	AccessTokenCookie = "sb-access-token"
	LegacyTokenCookie = "sb:token"
)

// CredentialSource names where a token was found.
type CredentialSource string

const (
	SourceNone         CredentialSource = ""
	SourceHeader       CredentialSource = "header"
	SourceAccessCookie CredentialSource = "cookie:" + AccessTokenCookie
	SourceLegacyCookie CredentialSource = "cookie:" + LegacyTokenCookie
)

// ExtractCredential returns the bearer token and its source. An
// "Authorization: Bearer" header wins; otherwise the cookies are tried in
// order. An empty token means no credential was presented.
func ExtractCredential(r *http.Request) (string, CredentialSource) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, SourceHeader
			}
		}
	}

	if token := cookieValue(r, AccessTokenCookie); token != "" {
		return token, SourceAccessCookie
	}
	if token := cookieValue(r, LegacyTokenCookie); token != "" {
		return token, SourceLegacyCookie
	}
	return "", SourceNone
}

// cookieValue reads a cookie straight from the Cookie headers. net/http
// skips names that are not RFC 6265 tokens, and "sb:token" contains ':'.
func cookieValue(r *http.Request, name string) string {
	for _, line := range r.Header.Values("Cookie") {
		for _, part := range strings.Split(line, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok || strings.TrimSpace(k) != name {
				continue
			}
			v = strings.TrimSpace(v)
			if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
				v = v[1 : len(v)-1]
			}
			if v != "" {
				return v
			}
		}
	}
	return ""
}
