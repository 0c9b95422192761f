// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

import "testing"

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"FINANCE", RoleFinance, true},
		{"SCHEDULER", RoleScheduler, true},
		{"SUPPORT_WORKER", RoleSupportWorker, true},
		{"admin", "", false},
		{"SUPERUSER", "", false},
		{"", "", false},
		{"*", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRoleHierarchy(t *testing.T) {
	t.Parallel()

	if !RoleAdmin.AtLeast(RoleFinance) {
		t.Error("ADMIN should be at least FINANCE")
	}
	if !RoleScheduler.AtLeast(RoleScheduler) {
		t.Error("a role should satisfy itself")
	}
	if RoleSupportWorker.AtLeast(RoleScheduler) {
		t.Error("SUPPORT_WORKER should not be at least SCHEDULER")
	}
	if Role("ROOT").AtLeast(RoleSupportWorker) {
		t.Error("unknown role must not satisfy any requirement")
	}
	if RoleAdmin.AtLeast(Role("ROOT")) {
		t.Error("nothing satisfies an unknown requirement")
	}
	if Role("").Rank() != 0 {
		t.Error("zero role should rank 0")
	}
	if LowestRole.Rank() != 1 {
		t.Errorf("LowestRole rank = %d, want 1", LowestRole.Rank())
	}
}
