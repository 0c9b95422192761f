// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/ndisgate/internal/authz"
)

// ProviderUser is the user record returned by an identity provider.
type ProviderUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`

	// ExpiresAt is when the validated token stops being valid. Zero when
	// the provider does not report it.
	ExpiresAt time.Time `json:"-"`
}

// IdentityProvider validates a bearer token and returns the user it belongs to.
//
// Implementations return an error wrapping ErrInvalidCredentials or
// ErrExpiredCredentials when the token is rejected, and ErrProviderUnavailable
// when the provider cannot answer. They must honour ctx cancellation.
type IdentityProvider interface {
	Name() string
	ValidateToken(ctx context.Context, token string) (*ProviderUser, error)
}

// toIdentity maps a provider user to an Identity. A missing or empty
// metadata role becomes authz.LowestRole; an unrecognised value becomes the
// zero Role.
func toIdentity(u *ProviderUser) *Identity {
	identity := &Identity{ID: u.ID, Email: u.Email, ExpiresAt: u.ExpiresAt}

	raw, present := u.UserMetadata["role"]
	if !present || raw == nil {
		identity.Role = authz.LowestRole
		return identity
	}

	s, ok := raw.(string)
	if !ok {
		identity.RawRole = "<non-string>"
		return identity
	}
	if s == "" {
		identity.Role = authz.LowestRole
		return identity
	}

	identity.RawRole = s
	if role, ok := authz.ParseRole(s); ok {
		identity.Role = role
	}
	return identity
}
