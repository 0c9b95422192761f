// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

// Package audit records access decisions to an external, append-only store.
//
// The Sink is fire-and-forget: Record never blocks and never returns an
// error. Events are queued on a bounded channel and written by a single
// background worker; a full queue drops the event with a warning. Store
// failures are logged and counted, never surfaced to the request path.
//
// Stores:
//   - HTTPStore POSTs each event as JSON to a log-ingestion endpoint.
//   - LogStore writes each event to the structured application log.
//   - MemoryStore keeps recent events in memory for tests and development.
package audit
