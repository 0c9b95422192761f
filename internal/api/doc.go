// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

/*
Package api assembles the HTTP surface of the gate.

The router is a chi mux with three tiers:

	/healthz, /metrics        served before the gate, never authorized
	/api/me, /admin/api/*     gate-owned endpoints, authorized by the gate
	everything else           authorized by the gate, then proxied upstream

Every request passes request-ID, Prometheus, latency, CORS and rate-limit
middleware. The gate itself runs as chi middleware on the second and third
tiers, so the upstream application only ever sees allowed requests.

Admin endpoints live under /admin, which the default route table maps to
the "admin" resource, so only ADMIN callers reach them.
*/
package api
