// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Wildcard in a resource or action set matches every value.
const Wildcard = "*"

var (
	// ErrUnknownRole is returned when policy names a role outside the closed set.
	ErrUnknownRole = errors.New("unknown role")

	// ErrWildcardNotAllowed is returned when a role other than ADMIN uses "*".
	ErrWildcardNotAllowed = errors.New("wildcard is reserved for ADMIN")

	// ErrNonRectangularPolicy is returned when a role's policy rows are not
	// the full cross product of its resources and actions.
	ErrNonRectangularPolicy = errors.New("policy rows do not form a resource by action grid")

	// ErrMalformedPolicy is returned for rows without subject, object and action.
	ErrMalformedPolicy = errors.New("malformed policy row")
)

type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Permission is the set of resources and the set of actions a role may use.
// A Permission is immutable after construction. The zero value permits nothing.
type Permission struct {
	resources stringSet
	actions   stringSet
}

// NewPermission builds a Permission from resource and action lists.
func NewPermission(resources, actions []string) Permission {
	return Permission{
		resources: newStringSet(resources),
		actions:   newStringSet(actions),
	}
}

// Resources returns the resource names in sorted order.
func (p Permission) Resources() []string { return p.resources.sorted() }

// Actions returns the action names in sorted order.
func (p Permission) Actions() []string { return p.actions.sorted() }

// HasResource reports whether name is in the resource set.
func (p Permission) HasResource(name string) bool { return p.resources.has(name) }

// HasAction reports whether name is in the action set.
func (p Permission) HasAction(name string) bool { return p.actions.has(name) }

// IsWildcard reports whether either set contains "*".
func (p Permission) IsWildcard() bool {
	return p.resources.has(Wildcard) || p.actions.has(Wildcard)
}

// IsEmpty reports whether the permission grants nothing.
func (p Permission) IsEmpty() bool {
	return len(p.resources) == 0 || len(p.actions) == 0
}

// Catalog maps each role to its Permission. It is built once and never
// mutated, so it is safe for concurrent use.
type Catalog struct {
	perms map[Role]Permission
}

// NewCatalog validates the table and returns a Catalog.
// Unknown roles and non-ADMIN wildcards are rejected.
func NewCatalog(table map[Role]Permission) (*Catalog, error) {
	perms := make(map[Role]Permission, len(table))
	for role, perm := range table {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, string(role))
		}
		if perm.IsWildcard() && role != RoleAdmin {
			return nil, fmt.Errorf("%w: role %s", ErrWildcardNotAllowed, role)
		}
		perms[role] = NewPermission(perm.Resources(), perm.Actions())
	}
	return &Catalog{perms: perms}, nil
}

// CompilePolicy builds a Catalog from Casbin "p" rows of the form
// [subject, object, action].
func CompilePolicy(rows [][]string) (*Catalog, error) {
	type grid struct {
		resources stringSet
		actions   stringSet
		cells     stringSet
	}
	grids := make(map[Role]*grid)

	for _, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, row)
		}
		sub, obj, act := strings.TrimSpace(row[0]), strings.TrimSpace(row[1]), strings.TrimSpace(row[2])
		if sub == "" || obj == "" || act == "" {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, row)
		}
		role, ok := ParseRole(sub)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, sub)
		}
		g := grids[role]
		if g == nil {
			g = &grid{resources: stringSet{}, actions: stringSet{}, cells: stringSet{}}
			grids[role] = g
		}
		g.resources[obj] = struct{}{}
		g.actions[act] = struct{}{}
		g.cells[obj+"\x00"+act] = struct{}{}
	}

	table := make(map[Role]Permission, len(grids))
	for role, g := range grids {
		if len(g.cells) != len(g.resources)*len(g.actions) {
			return nil, fmt.Errorf("%w: role %s has %d rows for %d resources and %d actions",
				ErrNonRectangularPolicy, role, len(g.cells), len(g.resources), len(g.actions))
		}
		table[role] = Permission{resources: g.resources, actions: g.actions}
	}
	return NewCatalog(table)
}

// PermissionsFor returns the role's Permission. Roles outside the closed set,
// including the zero Role, get an empty Permission.
func (c *Catalog) PermissionsFor(role Role) Permission {
	if c == nil || !role.Valid() {
		return Permission{}
	}
	return c.perms[role]
}

// Roles returns the roles present in the catalog, most privileged first.
func (c *Catalog) Roles() []Role {
	out := make([]Role, 0, len(c.perms))
	for _, r := range AllRoles() {
		if _, ok := c.perms[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
