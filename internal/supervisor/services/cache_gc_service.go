// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/ndisgate/internal/logging"
)

// GCRunner is satisfied by *auth.BadgerIdentityCache.
type GCRunner interface {
	RunGC() error
}

// CacheGCService reclaims space from expired identity cache entries on a
// fixed interval. GC errors are logged and the loop continues; a full pass
// is retried on the next tick.
type CacheGCService struct {
	cache    GCRunner
	interval time.Duration
	name     string
}

// NewCacheGCService creates the service. A non-positive interval defaults
// to 10 minutes.
func NewCacheGCService(cache GCRunner, interval time.Duration) *CacheGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheGCService{cache: cache, interval: interval, name: "identity-cache-gc"}
}

// Serve implements suture.Service.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.cache.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Identity cache GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Identity cache GC complete")
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheGCService) String() string {
	return s.name
}
