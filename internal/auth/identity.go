// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/ndisgate/internal/authz"
)

// Standard resolution errors
var (
	// ErrNoCredentials indicates no token was found on the request.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the provider rejected the token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates the token has expired.
	ErrExpiredCredentials = errors.New("credentials expired")

	// ErrProviderUnavailable indicates the identity provider could not be
	// reached or answered unexpectedly.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Identity is the resolved caller for one request. It is never persisted.
type Identity struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  authz.Role `json:"role"`

	// RawRole is the role string exactly as stored by the provider, kept for
	// audit details when it is not a recognised role.
	RawRole string `json:"raw_role,omitempty"`

	// ExpiresAt bounds how long the identity may be served from a cache.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the credential behind the identity has expired.
// Identities without a known expiry never expire on their own.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// RoleLabel returns the role for logs and audit details.
func (i *Identity) RoleLabel() string {
	if i.Role.Valid() {
		return i.Role.String()
	}
	if i.RawRole != "" {
		return i.RawRole
	}
	return "unknown"
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext retrieves the identity placed by the gate.
// Returns nil for public paths and unauthenticated requests.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*Identity)
	return identity
}
