// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package audit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/tomtom215/ndisgate/internal/logging"
)

// Source represents where a request originated.
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// SourceFunc extracts the client source from a request.
type SourceFunc func(r *http.Request) Source

// SourceFromRequest reads the client address from X-Forwarded-For (first
// hop), then X-Real-IP. Missing values are recorded as "unknown".
func SourceFromRequest(r *http.Request) Source {
	ip := Unknown
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			ip = first
		}
	} else if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		ip = xri
	}

	ua := r.UserAgent()
	if ua == "" {
		ua = Unknown
	}
	return Source{IPAddress: ip, UserAgent: ua}
}

// NewSourceFunc returns SourceFromRequest when trustedProxies is empty.
// Otherwise forwarding headers are honoured only when the direct peer is a
// trusted proxy, and the peer address is used for everyone else.
// Entries may be single addresses or CIDR prefixes; invalid entries are
// logged and skipped.
func NewSourceFunc(trustedProxies []string) SourceFunc {
	var prefixes []netip.Prefix
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		logging.Warn().Str("entry", entry).Msg("Ignoring invalid trusted proxy")
	}
	if len(prefixes) == 0 {
		return SourceFromRequest
	}

	return func(r *http.Request) Source {
		peer := peerAddr(r)
		if peer.IsValid() {
			for _, p := range prefixes {
				if p.Contains(peer) {
					return SourceFromRequest(r)
				}
			}
		}

		src := SourceFromRequest(r)
		src.IPAddress = Unknown
		if peer.IsValid() {
			src.IPAddress = peer.String()
		}
		return src
	}
}

func peerAddr(r *http.Request) netip.Addr {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}
