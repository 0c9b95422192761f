// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/logging"
)

// PolicyHandlers exposes read-only views of the permission model. They are
// mounted under an ADMIN-mapped prefix, so the gate has already authorized
// the caller.
type PolicyHandlers struct {
	catalog   *Catalog
	enforcer  *Enforcer
	evaluator *Evaluator
}

// NewPolicyHandlers creates a new PolicyHandlers instance.
func NewPolicyHandlers(catalog *Catalog, enforcer *Enforcer) *PolicyHandlers {
	return &PolicyHandlers{
		catalog:   catalog,
		enforcer:  enforcer,
		evaluator: NewEvaluator(catalog),
	}
}

type roleView struct {
	Name      string   `json:"name"`
	Rank      int      `json:"rank"`
	Resources []string `json:"resources"`
	Actions   []string `json:"actions"`
}

// ListRoles returns every catalog role with its permission sets.
// GET /admin/api/roles
func (h *PolicyHandlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles := make([]roleView, 0, len(h.catalog.Roles()))
	for _, role := range h.catalog.Roles() {
		perm := h.catalog.PermissionsFor(role)
		roles = append(roles, roleView{
			Name:      role.String(),
			Rank:      role.Rank(),
			Resources: perm.Resources(),
			Actions:   perm.Actions(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

// GetRolePermissions returns the permission sets for one role.
// GET /admin/api/roles/{role}
func (h *PolicyHandlers) GetRolePermissions(w http.ResponseWriter, r *http.Request, name string) {
	role, ok := ParseRole(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown role"})
		return
	}
	perm := h.catalog.PermissionsFor(role)
	writeJSON(w, http.StatusOK, roleView{
		Name:      role.String(),
		Rank:      role.Rank(),
		Resources: perm.Resources(),
		Actions:   perm.Actions(),
	})
}

// CheckPermission evaluates a role/resource/action triple against both the
// compiled catalog and the authored Casbin policy.
// GET /admin/api/check?role=FINANCE&resource=claims&action=approve
func (h *PolicyHandlers) CheckPermission(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role := Role(q.Get("role"))
	resource := q.Get("resource")
	action := q.Get("action")
	if resource == "" || action == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "resource and action are required"})
		return
	}

	allowed := h.evaluator.IsAllowed(role, resource, action)

	policyAllowed := false
	if role.Valid() {
		var err error
		policyAllowed, err = h.enforcer.Enforce(role, resource, action)
		if err != nil {
			logging.Error().Err(err).Msg("Policy check error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"role":           role.String(),
		"resource":       resource,
		"action":         action,
		"allowed":        allowed,
		"policy_allowed": policyAllowed,
	})
}

// GetPolicies returns the authored policy rows.
// GET /admin/api/policies
func (h *PolicyHandlers) GetPolicies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"policies": h.enforcer.GetPolicy()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode policy response")
	}
}
