// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"testing"

	"github.com/tomtom215/ndisgate/internal/authz"
)

func TestToIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		metadata  map[string]interface{}
		wantRole  authz.Role
		wantLabel string
	}{
		{"nil metadata", nil, authz.RoleSupportWorker, "SUPPORT_WORKER"},
		{"role absent", map[string]interface{}{"name": "Sam"}, authz.RoleSupportWorker, "SUPPORT_WORKER"},
		{"role null", map[string]interface{}{"role": nil}, authz.RoleSupportWorker, "SUPPORT_WORKER"},
		{"role empty", map[string]interface{}{"role": ""}, authz.RoleSupportWorker, "SUPPORT_WORKER"},
		{"admin", map[string]interface{}{"role": "ADMIN"}, authz.RoleAdmin, "ADMIN"},
		{"finance", map[string]interface{}{"role": "FINANCE"}, authz.RoleFinance, "FINANCE"},
		{"scheduler", map[string]interface{}{"role": "SCHEDULER"}, authz.RoleScheduler, "SCHEDULER"},
		{"unknown role", map[string]interface{}{"role": "MANAGER"}, "", "MANAGER"},
		{"wrong case", map[string]interface{}{"role": "admin"}, "", "admin"},
		{"non-string role", map[string]interface{}{"role": 4.0}, "", "<non-string>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			identity := toIdentity(&ProviderUser{ID: "u1", Email: "sam@example.com", UserMetadata: tt.metadata})
			if identity.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", identity.Role, tt.wantRole)
			}
			if identity.RoleLabel() != tt.wantLabel {
				t.Errorf("RoleLabel() = %q, want %q", identity.RoleLabel(), tt.wantLabel)
			}
			if identity.ID != "u1" || identity.Email != "sam@example.com" {
				t.Errorf("identity = %+v, want id and email copied", identity)
			}
		})
	}
}

func TestUnknownRoleIsDeniedEverywhere(t *testing.T) {
	t.Parallel()

	catalog, err := authz.NewCatalog(map[authz.Role]authz.Permission{
		authz.RoleAdmin: authz.NewPermission([]string{authz.Wildcard}, []string{authz.Wildcard}),
	})
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	evaluator := authz.NewEvaluator(catalog)

	identity := toIdentity(&ProviderUser{ID: "u1", UserMetadata: map[string]interface{}{"role": "SUPERUSER"}})
	for _, resource := range []string{"admin", "finance", "clients", "*"} {
		if evaluator.IsAllowed(identity.Role, resource, "read") {
			t.Errorf("IsAllowed(%q, %q, read) = true, want false", identity.Role, resource)
		}
	}
}
