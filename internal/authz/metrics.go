// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzPolicyLoadsTotal counts policy load attempts by outcome.
	AuthzPolicyLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_policy_loads_total",
			Help: "Total number of authorization policy loads",
		},
		[]string{"status"},
	)

	// AuthzPolicyRules reports the number of loaded policy rows.
	AuthzPolicyRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_policy_rules",
			Help: "Number of authorization policy rules loaded",
		},
	)

	// AuthzCatalogRoles reports the number of roles in the compiled catalog.
	AuthzCatalogRoles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_catalog_roles",
			Help: "Number of roles present in the permission catalog",
		},
	)
)

// RecordPolicyLoad records a policy load attempt.
func RecordPolicyLoad(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	AuthzPolicyLoadsTotal.WithLabelValues(status).Inc()
}

// UpdatePolicyStats updates the loaded policy gauges.
func UpdatePolicyStats(rules, roles int) {
	AuthzPolicyRules.Set(float64(rules))
	AuthzCatalogRoles.Set(float64(roles))
}
