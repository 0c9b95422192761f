// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

// Evaluator answers role/resource/action questions against a Catalog.
// IsAllowed is a pure function of its inputs and the immutable Catalog.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator returns an Evaluator over catalog.
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// IsAllowed reports whether role may perform action on resource.
//
// A wildcard in either set allows everything. Otherwise both the resource
// and the action must be present. The zero Role and unknown roles are denied.
func (e *Evaluator) IsAllowed(role Role, resource, action string) bool {
	if e == nil || !role.Valid() {
		return false
	}
	perm := e.catalog.PermissionsFor(role)
	if perm.IsWildcard() {
		return true
	}
	return perm.HasResource(resource) && perm.HasAction(action)
}
