// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

// Role is a user category from the closed set below. The zero value is not a
// valid role and is denied everywhere.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleFinance       Role = "FINANCE"
	RoleScheduler     Role = "SCHEDULER"
	RoleSupportWorker Role = "SUPPORT_WORKER"
)

// LowestRole is assigned when the identity provider stores no role for a user.
const LowestRole = RoleSupportWorker

// roleRanks orders roles for hierarchy checks. Higher is more privileged.
var roleRanks = map[Role]int{
	RoleAdmin:         4,
	RoleFinance:       3,
	RoleScheduler:     2,
	RoleSupportWorker: 1,
}

// AllRoles returns the closed role set, most privileged first.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleFinance, RoleScheduler, RoleSupportWorker}
}

// ParseRole maps a stored role string to a Role. Matching is exact; role
// names are upper-case in the identity provider's metadata.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", false
	}
	return r, true
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the hierarchy rank of r, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r is a known role ranked at or above required.
// Unknown roles never satisfy a requirement, and nothing satisfies an unknown
// requirement.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Rank() >= required.Rank()
}

func (r Role) String() string {
	return string(r)
}
