// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package audit

import (
	"context"
	"errors"
	"time"
)

// Action names the kind of audit event.
type Action string

const (
	ActionAccessDenied  Action = "ACCESS_DENIED"
	ActionAccessGranted Action = "ACCESS_GRANTED"
)

// Unknown is recorded when the client address or user agent is absent.
const Unknown = "unknown"

// ErrStoreRejected indicates the store answered but refused the event.
var ErrStoreRejected = errors.New("audit store rejected event")

// Event is one access-decision record. Events are append-only.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id" validate:"required,uuid4"`

	// UserID is nil when no identity was resolved.
	UserID *string `json:"userId"`

	Action    Action `json:"action" validate:"required,oneof=ACCESS_DENIED ACCESS_GRANTED"`
	Resource  string `json:"resource" validate:"required,startswith=/"`
	Details   string `json:"details" validate:"max=1024"`
	IPAddress string `json:"ipAddress" validate:"required"`
	UserAgent string `json:"userAgent" validate:"required"`

	Timestamp time.Time `json:"timestamp"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"requestId,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
}

// Recorder accepts events without blocking.
type Recorder interface {
	Record(event *Event)
}

// QueryFilter selects events from a MemoryStore.
type QueryFilter struct {
	Action   Action
	UserID   string
	Resource string
	Limit    int
}

// UserIDPtr returns nil for an empty id.
func UserIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
