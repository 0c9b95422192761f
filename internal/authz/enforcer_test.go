// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setupTempPolicy writes a policy file and returns its path.
func setupTempPolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	return path
}

func TestNewEnforcerEmbedded(t *testing.T) {
	t.Parallel()

	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if got := len(enforcer.GetPolicy()); got != 22 {
		t.Errorf("embedded policy has %d rules, want 22", got)
	}
	if got := len(enforcer.GetFilteredPolicy(RoleScheduler)); got != 6 {
		t.Errorf("SCHEDULER has %d rules, want 6", got)
	}
}

// The compiled catalog must agree with the authored Casbin policy on every
// catalog role for every resource and action the policy mentions.
func TestCatalogAgreesWithEnforcer(t *testing.T) {
	t.Parallel()

	catalog, enforcer, err := LoadPolicy(nil)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	eval := NewEvaluator(catalog)

	resources := []string{"admin", "claims", "finance", "reports", "schedules", "appointments", "clients", "notes", "basic_reports", "unknown"}
	actions := []string{"read", "write", "approve", "delete"}

	for _, role := range AllRoles() {
		for _, res := range resources {
			for _, act := range actions {
				want, err := enforcer.Enforce(role, res, act)
				if err != nil {
					t.Fatalf("Enforce() error = %v", err)
				}
				if got := eval.IsAllowed(role, res, act); got != want {
					t.Errorf("%s/%s/%s: catalog=%v casbin=%v", role, res, act, got, want)
				}
			}
		}
	}
}

func TestLoadPolicyFromFile(t *testing.T) {
	t.Parallel()

	path := setupTempPolicy(t, `p, ADMIN, *, *
p, SUPPORT_WORKER, notes, read
`)
	catalog, _, err := LoadPolicy(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	eval := NewEvaluator(catalog)
	if !eval.IsAllowed(RoleSupportWorker, "notes", "read") {
		t.Error("SUPPORT_WORKER should read notes")
	}
	if eval.IsAllowed(RoleSupportWorker, "clients", "read") {
		t.Error("file policy should replace the embedded one")
	}
	if eval.IsAllowed(RoleFinance, "claims", "read") {
		t.Error("FINANCE absent from file policy should be denied")
	}
}

func TestLoadPolicyRejectsWildcardForNonAdmin(t *testing.T) {
	t.Parallel()

	path := setupTempPolicy(t, "p, FINANCE, *, read\n")
	_, _, err := LoadPolicy(&EnforcerConfig{PolicyPath: path})
	if !errors.Is(err, ErrWildcardNotAllowed) {
		t.Errorf("LoadPolicy() error = %v, want ErrWildcardNotAllowed", err)
	}
}

func TestLoadPolicyRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	path := setupTempPolicy(t, "p, AUDITOR, reports, read\n")
	_, _, err := LoadPolicy(&EnforcerConfig{PolicyPath: path})
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("LoadPolicy() error = %v, want ErrUnknownRole", err)
	}
}

func TestNewEnforcerMissingFiles(t *testing.T) {
	t.Parallel()

	if _, err := NewEnforcer(&EnforcerConfig{ModelPath: "/non/existent/model.conf"}); err == nil {
		t.Error("expected error for missing model file")
	}
	if _, err := NewEnforcer(&EnforcerConfig{PolicyPath: "/non/existent/policy.csv"}); err == nil {
		t.Error("expected error for missing policy file")
	}
}

func TestLoadEmbeddedPolicyRejectsGroupingRows(t *testing.T) {
	t.Parallel()

	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	err = loadEmbeddedPolicy(enforcer.enforcer, "g, alice, ADMIN\n")
	if !errors.Is(err, ErrMalformedPolicy) {
		t.Errorf("loadEmbeddedPolicy() error = %v, want ErrMalformedPolicy", err)
	}
}
