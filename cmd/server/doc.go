// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

/*
Command server runs the gate in front of a care-provider web application.

Every request is authorized before it reaches the application: public paths
pass straight through, everything else needs a valid access token whose role
grants the resource mapped to the path. Denied browser requests are
redirected to the sign-in page; denied API requests get 401 or 403. Every
denial is written to the audit store.

Initialization order:

 1. Configuration: Koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog, JSON or console
 3. Permission catalog: Casbin model and policy, embedded or from disk
 4. Identity: GoTrue remote validation or local HS256 JWT, optional cache
 5. Audit: asynchronous sink over an HTTP, log or memory store
 6. Gate and router: chi with CORS, rate limiting and metrics
 7. Supervisor tree: suture v4

# Configuration

Minimal GoTrue deployment:

	SUPABASE_URL=https://project.supabase.co
	SUPABASE_SERVICE_ROLE_KEY=service-role-key
	UPSTREAM_URL=http://app:3000
	AUDIT_STORE=http
	AUDIT_ENDPOINT=https://project.supabase.co/rest/v1/audit_logs

Local validation without a network call per request:

	IDP_PROVIDER=jwt
	SUPABASE_JWT_SECRET=at-least-thirty-two-characters-long
	IDENTITY_CACHE=memory

Routes map path prefixes to catalog resources, longest prefix first:

	GATE_ROUTES=/admin=admin,/finance=finance,/scheduler=schedules,/support=clients
*/
package main
