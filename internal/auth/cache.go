// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tomtom215/ndisgate/internal/metrics"
)

// IdentityCache stores resolved identities keyed by TokenKey.
type IdentityCache interface {
	Get(ctx context.Context, key string) (*Identity, bool)
	Set(ctx context.Context, key string, identity *Identity)
	Close() error
}

// TokenKey derives the cache key for a token so raw tokens are never
// held as map keys or written to disk.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryIdentityCache is a size-bounded LRU with a per-entry TTL.
type MemoryIdentityCache struct {
	lru *expirable.LRU[string, Identity]
}

// NewMemoryIdentityCache creates an in-memory cache.
func NewMemoryIdentityCache(size int, ttl time.Duration) *MemoryIdentityCache {
	if size <= 0 {
		size = 10000
	}
	onEvict := func(string, Identity) {
		metrics.IdentityCacheEvictions.WithLabelValues("memory").Inc()
	}
	return &MemoryIdentityCache{
		lru: expirable.NewLRU[string, Identity](size, onEvict, ttl),
	}
}

// Get implements IdentityCache. The returned Identity is a copy.
func (c *MemoryIdentityCache) Get(_ context.Context, key string) (*Identity, bool) {
	identity, ok := c.lru.Get(key)
	if ok && identity.Expired(time.Now()) {
		c.lru.Remove(key)
		ok = false
	}
	if !ok {
		metrics.IdentityCacheMisses.WithLabelValues("memory").Inc()
		return nil, false
	}
	metrics.IdentityCacheHits.WithLabelValues("memory").Inc()
	return &identity, true
}

// Set implements IdentityCache. The LRU TTL is shared by all entries, so
// Get drops entries whose credential has expired.
func (c *MemoryIdentityCache) Set(_ context.Context, key string, identity *Identity) {
	if identity == nil || identity.Expired(time.Now()) {
		return
	}
	c.lru.Add(key, *identity)
}

// Len returns the number of live entries.
func (c *MemoryIdentityCache) Len() int {
	return c.lru.Len()
}

// Close implements IdentityCache.
func (c *MemoryIdentityCache) Close() error {
	c.lru.Purge()
	return nil
}
