// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tomtom215/ndisgate/internal/logging"
	"github.com/tomtom215/ndisgate/internal/metrics"
	"github.com/tomtom215/ndisgate/internal/validation"
)

// Config holds configuration for the audit sink.
type Config struct {
	// Enabled controls whether events are recorded at all.
	Enabled bool `json:"enabled"`

	// BufferSize is the size of the async write queue.
	BufferSize int `json:"buffer_size"`

	// WriteTimeout bounds each store write.
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Stats is a snapshot of sink counters.
type Stats struct {
	Written uint64 `json:"written"`
	Failed  uint64 `json:"failed"`
	Dropped uint64 `json:"dropped"`
	Queued  int    `json:"queued"`
}

// Sink queues events and writes them to a Store in the background.
type Sink struct {
	config   Config
	store    Store
	events   chan *Event
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	written atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewSink creates a sink and starts its writer.
func NewSink(store Store, config *Config) *Sink {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	s := &Sink{
		config:   cfg,
		store:    store,
		events:   make(chan *Event, cfg.BufferSize),
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.asyncWriter()

	return s
}

// Record queues an event. It never blocks: when the queue is full or the
// sink is closed the event is dropped and counted.
func (s *Sink) Record(event *Event) {
	if event == nil || !s.config.Enabled {
		return
	}
	normalize(event)

	if err := validation.ValidateStruct(event); err != nil {
		s.drop(event, "invalid event: "+err.Error())
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.drop(event, "sink closed")
		return
	}

	select {
	case s.events <- event:
		metrics.AuditQueueDepth.Set(float64(len(s.events)))
	default:
		s.drop(event, "buffer full")
	}
}

func (s *Sink) drop(event *Event, reason string) {
	s.dropped.Add(1)
	metrics.RecordAuditEvent("dropped")
	logging.Warn().
		Str("event_id", event.ID).
		Str("action", string(event.Action)).
		Str("resource", event.Resource).
		Str("reason", reason).
		Msg("Dropping audit event")
}

// normalize fills fields the caller may leave empty.
func normalize(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.IPAddress == "" {
		event.IPAddress = Unknown
	}
	if event.UserAgent == "" {
		event.UserAgent = Unknown
	}
	if !strings.HasPrefix(event.Resource, "/") {
		// Asterisk-form and other non-path targets.
		event.Resource = "/" + event.Resource
	}
	event.Details = truncateUTF8(event.Details, maxDetailsBytes)
}

const maxDetailsBytes = 1024

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// asyncWriter processes events from the queue.
func (s *Sink) asyncWriter() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			for {
				select {
				case event := <-s.events:
					s.writeEvent(event)
				default:
					return
				}
			}
		case event := <-s.events:
			s.writeEvent(event)
		}
	}
}

// writeEvent persists one event. Store errors and panics are contained.
func (s *Sink) writeEvent(event *Event) {
	defer metrics.AuditQueueDepth.Set(float64(len(s.events)))

	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()

	if err := s.save(ctx, event); err != nil {
		s.failed.Add(1)
		metrics.RecordAuditEvent("failed")
		logging.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("action", string(event.Action)).
			Str("resource", event.Resource).
			Msg("Failed to save audit event")
		return
	}
	s.written.Add(1)
	metrics.RecordAuditEvent("written")
}

func (s *Sink) save(ctx context.Context, event *Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("audit store panic: %v", rec)
		}
	}()
	return s.store.Save(ctx, event)
}

// Stats returns the current counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Written: s.written.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
		Queued:  len(s.events),
	}
}

// Close stops accepting events, drains the queue and waits for the writer.
// It is safe to call more than once.
func (s *Sink) Close() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}
