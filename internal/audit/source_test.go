// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package audit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSourceFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		wantIP  string
		wantUA  string
	}{
		{
			name:   "no headers",
			wantIP: Unknown,
			wantUA: Unknown,
		},
		{
			name:    "forwarded for first hop",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1", "User-Agent": "Mozilla/5.0"},
			wantIP:  "203.0.113.9",
			wantUA:  "Mozilla/5.0",
		},
		{
			name:    "forwarded for wins over real ip",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "198.51.100.7"},
			wantIP:  "203.0.113.9",
			wantUA:  Unknown,
		},
		{
			name:    "real ip",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			wantIP:  "198.51.100.7",
			wantUA:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
			req.Header.Del("User-Agent")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			src := SourceFromRequest(req)
			if src.IPAddress != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", src.IPAddress, tt.wantIP)
			}
			if src.UserAgent != tt.wantUA {
				t.Errorf("UserAgent = %q, want %q", src.UserAgent, tt.wantUA)
			}
		})
	}
}

func TestNewSourceFunc_TrustedProxies(t *testing.T) {
	sourceFn := NewSourceFunc([]string{"10.0.0.0/8", "192.0.2.1", "not-an-ip"})

	tests := []struct {
		name       string
		remoteAddr string
		wantIP     string
	}{
		{"trusted cidr honours header", "10.1.2.3:5555", "203.0.113.9"},
		{"trusted single address honours header", "192.0.2.1:443", "203.0.113.9"},
		{"untrusted peer ignores header", "198.51.100.20:1234", "198.51.100.20"},
		{"unparseable peer", "garbage", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("X-Forwarded-For", "203.0.113.9")

			if got := sourceFn(req).IPAddress; got != tt.wantIP {
				t.Errorf("IPAddress = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestNewSourceFunc_NoProxies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	if got := NewSourceFunc(nil)(req).IPAddress; got != "203.0.113.9" {
		t.Errorf("IPAddress = %q, want 203.0.113.9", got)
	}
}
