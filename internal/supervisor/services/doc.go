// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

// Package services adapts the gate's long-lived components to
// suture.Service. Each wrapper depends on a small interface rather than the
// concrete type, so tests drive them with fakes.
package services
