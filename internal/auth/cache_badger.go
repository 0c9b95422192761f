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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ndisgate/internal/logging"
	"github.com/tomtom215/ndisgate/internal/metrics"
)

const badgerIdentityKeyPrefix = "identity:"

// BadgerIdentityCache persists resolved identities to disk so a restart
// does not send every active session back to the provider. Entries expire
// through Badger TTLs.
type BadgerIdentityCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerIdentityCache opens a cache at path.
func NewBadgerIdentityCache(path string, ttl time.Duration) (*BadgerIdentityCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for identity cache: %w", err)
	}
	return &BadgerIdentityCache{db: db, ttl: ttl}, nil
}

// NewBadgerIdentityCacheFromDB wraps an existing Badger instance.
func NewBadgerIdentityCacheFromDB(db *badger.DB, ttl time.Duration) *BadgerIdentityCache {
	return &BadgerIdentityCache{db: db, ttl: ttl}
}

// Get implements IdentityCache.
func (c *BadgerIdentityCache) Get(_ context.Context, key string) (*Identity, bool) {
	var identity Identity
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerIdentityKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &identity)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Msg("Identity cache read failed")
		}
		metrics.IdentityCacheMisses.WithLabelValues("badger").Inc()
		return nil, false
	}
	if identity.Expired(time.Now()) {
		metrics.IdentityCacheMisses.WithLabelValues("badger").Inc()
		return nil, false
	}
	metrics.IdentityCacheHits.WithLabelValues("badger").Inc()
	return &identity, true
}

// Set implements IdentityCache. Write failures are logged and ignored.
func (c *BadgerIdentityCache) Set(_ context.Context, key string, identity *Identity) {
	if identity == nil {
		return
	}
	data, err := json.Marshal(identity)
	if err != nil {
		logging.Warn().Err(err).Msg("Identity cache encode failed")
		return
	}
	ttl := c.ttl
	if !identity.ExpiresAt.IsZero() {
		remaining := time.Until(identity.ExpiresAt)
		if remaining <= 0 {
			return
		}
		ttl = min(ttl, remaining)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(badgerIdentityKeyPrefix+key), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Identity cache write failed")
	}
}

// RunGC reclaims value log space. badger.ErrNoRewrite means there was
// nothing to collect and is not reported.
func (c *BadgerIdentityCache) RunGC() error {
	err := c.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("identity cache gc: %w", err)
	}
	return nil
}

// Close implements IdentityCache.
func (c *BadgerIdentityCache) Close() error {
	return c.db.Close()
}
