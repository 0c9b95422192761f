// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

// Package authz holds the role permission model.
//
// The policy is authored as a Casbin model and CSV policy (embedded by
// default, overridable from files). At startup the policy rows are compiled
// into an immutable Catalog: one Permission per role, each with an explicit
// resource set and action set. Request-time checks go through the Evaluator,
// which reads only the Catalog and performs no I/O.
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = r.sub == p.sub && (p.obj == "*" || p.act == "*" || (r.obj == p.obj && r.act == p.act))
//
// Each role's rows must form the full cross product of its resources and
// actions; anything else cannot be expressed as a Permission and is rejected.
// The "*" wildcard is accepted for ADMIN only.
//
// # Usage
//
//	catalog, _, err := authz.LoadPolicy(&authz.EnforcerConfig{})
//	if err != nil {
//	    return err
//	}
//
//	eval := authz.NewEvaluator(catalog)
//	if eval.IsAllowed(authz.RoleFinance, "claims", "approve") {
//	    // ...
//	}
package authz
