// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package gate

import "github.com/tomtom215/ndisgate/internal/auth"

// Decision is the outcome of authorizing one request.
type Decision int

const (
	// DenyInvalidCredential is the zero value so an unset Decision denies.
	DenyInvalidCredential Decision = iota
	DenyNoCredential
	DenyInsufficientRole
	Allow
)

// String returns the metric and log label for the decision.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyNoCredential:
		return "deny_no_credential"
	case DenyInsufficientRole:
		return "deny_insufficient_role"
	default:
		return "deny_invalid_credential"
	}
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Result carries the decision and what it was based on.
type Result struct {
	Decision Decision

	// Identity is nil for public paths and credential denials.
	Identity *auth.Identity

	// Resource is the catalog resource the path mapped to, if any.
	Resource string

	// Public is true when the path skipped authentication.
	Public bool

	// Reason is the audit detail for a deny.
	Reason string
}
