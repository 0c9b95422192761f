// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package config

import "testing"

func TestRouteEntriesRejectsMalformed(t *testing.T) {
	tests := []string{"/admin", "=admin", "/admin=", " = "}
	for _, raw := range tests {
		g := GateConfig{Routes: []string{raw}}
		if _, err := g.RouteEntries(); err == nil {
			t.Errorf("RouteEntries(%q) expected error", raw)
		}
	}
}

func TestValidateDuplicateRoutePrefix(t *testing.T) {
	cfg := defaultConfig()
	cfg.Identity.URL = "https://project.supabase.co"
	cfg.Identity.APIKey = "k"
	cfg.Gate.Routes = []string{"/admin=admin", "/admin=finance"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected duplicate prefix error")
	}
}

func TestValidateAuditDisabledSkipsStoreChecks(t *testing.T) {
	cfg := defaultConfig()
	cfg.Identity.URL = "https://project.supabase.co"
	cfg.Identity.APIKey = "k"
	cfg.Audit.Enabled = false
	cfg.Audit.Store = "nonsense"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("development should not warn")
	}
	cfg.Server.Environment = "production"
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("production with wildcard origin should warn")
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
