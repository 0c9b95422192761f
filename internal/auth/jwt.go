// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinJWTSecretLength is the shortest HS256 secret accepted.
const MinJWTSecretLength = 32

// AccessTokenClaims are the claims carried by a hosted-auth access token.
type AccessTokenClaims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies access tokens locally using the project JWT secret.
// It avoids a network round trip per request at the cost of not observing
// server-side session revocation before the token expires.
type JWTProvider struct {
	secret   []byte
	audience string
	parser   *jwt.Parser
}

// NewJWTProvider creates a local verifier. audience may be empty.
func NewJWTProvider(secret, audience string) (*JWTProvider, error) {
	if len(secret) < MinJWTSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters", MinJWTSecretLength)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWTProvider{
		secret:   []byte(secret),
		audience: audience,
		parser:   jwt.NewParser(opts...),
	}, nil
}

// Name implements IdentityProvider.
func (p *JWTProvider) Name() string { return "jwt" }

// ValidateToken implements IdentityProvider.
func (p *JWTProvider) ValidateToken(ctx context.Context, token string) (*ProviderUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	claims := &AccessTokenClaims{}
	parsed, err := p.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredCredentials, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}

	user := &ProviderUser{
		ID:           claims.Subject,
		Email:        claims.Email,
		UserMetadata: claims.UserMetadata,
	}
	if claims.ExpiresAt != nil {
		user.ExpiresAt = claims.ExpiresAt.Time
	}
	return user, nil
}

// tokenExpiry reads the exp claim without verifying the token. It is only
// used to bound caching of a token the provider has already accepted, and
// returns the zero time for opaque tokens or tokens without exp.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
