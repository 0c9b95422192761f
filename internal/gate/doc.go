// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

/*
Package gate makes the per-request authorization decision.

Every request runs the same sequence:

 1. Public check: exact public paths and public prefixes are allowed
    without contacting the identity provider.
 2. Resolve: the auth.Resolver turns the credential into an Identity.
    No credential yields DenyNoCredential; a rejected or unverifiable
    credential yields DenyInvalidCredential.
 3. Map: the longest matching route prefix names the catalog resource.
    The action is always "read". Unmapped paths follow the default policy.
 4. Evaluate: the authz.Evaluator checks the role against the resource.

Each deny emits exactly one ACCESS_DENIED audit event. Audit delivery is
fire-and-forget and cannot change the decision. A panic anywhere in the
sequence is recovered and mapped to DenyInvalidCredential.

Gate.Check returns the Decision; Middleware renders it as a redirect to the
sign-in page for browsers or as 401/403 JSON for API callers.

	g, err := gate.New(gate.Deps{
	    Resolver:  resolver,
	    Evaluator: authz.NewEvaluator(catalog),
	    Audit:     sink,
	}, gate.DefaultConfig())
	if err != nil {
	    return err
	}
	router.Use(gate.Middleware(g, gate.MiddlewareConfig{SignInPath: "/auth/signin"}))
*/
package gate
