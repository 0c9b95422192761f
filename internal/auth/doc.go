// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

/*
Package auth resolves the caller of an HTTP request to an Identity.

The bearer credential is read from the Authorization header, then from the
sb-access-token cookie, then from the sb:token cookie. The token is never
interpreted here beyond being handed to an IdentityProvider:

  - GoTrueProvider asks the hosted identity service (GET /auth/v1/user) and
    is guarded by a circuit breaker.
  - JWTProvider verifies HS256 access tokens locally with the project's JWT
    secret.

The role comes from the provider's stored user metadata field "role". A
missing role becomes SUPPORT_WORKER; a value outside the closed role set
becomes the zero Role, which the permission catalog denies everywhere.

Resolver applies a bounded timeout to every provider call and optionally
consults an IdentityCache (in-memory LRU or Badger on disk) keyed by a
SHA-256 digest of the token. Only successful resolutions are cached.

	resolver := auth.NewResolver(auth.ResolverConfig{
	    Provider: provider,
	    Timeout:  5 * time.Second,
	})
	identity, err := resolver.Resolve(ctx, r)
	switch {
	case errors.Is(err, auth.ErrNoCredentials):
	    // no token on the request
	case err != nil:
	    // token rejected or provider unavailable
	}
*/
package auth
