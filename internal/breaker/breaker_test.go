// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package breaker

import (
	"errors"
	"testing"
	"time"
)

var errDownstream = errors.New("downstream failure")

func testSettings(name string) Settings {
	s := DefaultSettings(name)
	s.MinRequests = 3
	s.Timeout = time.Hour
	return s
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	b := New(testSettings("test-open"))
	for i := 0; i < 3; i++ {
		if _, err := b.Execute(func() (interface{}, error) { return nil, errDownstream }); !errors.Is(err, errDownstream) {
			t.Fatalf("attempt %d: error = %v, want downstream failure", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	called := false
	_, err := b.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	if !IsRejected(err) {
		t.Errorf("error = %v, want rejection", err)
	}
	if called {
		t.Error("function must not run while the breaker is open")
	}
}

func TestBreakerIsSuccessfulExcludesErrors(t *testing.T) {
	t.Parallel()

	errRejected := errors.New("token rejected")
	s := testSettings("test-excluded")
	s.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errRejected)
	}
	b := New(s)
	for i := 0; i < 10; i++ {
		_, _ = b.Execute(func() (interface{}, error) { return nil, errRejected })
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed", b.State())
	}
}

func TestDoCastsResult(t *testing.T) {
	t.Parallel()

	type payload struct{ ID string }
	b := New(testSettings("test-do"))

	got, err := Do(b, func() (*payload, error) { return &payload{ID: "u1"}, nil })
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("Do() = %+v", got)
	}

	if _, err := Do(b, func() (*payload, error) { return nil, errDownstream }); !errors.Is(err, errDownstream) {
		t.Errorf("Do() error = %v, want downstream failure", err)
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	if got := New(testSettings("idp")).Name(); got != "idp" {
		t.Errorf("Name() = %q", got)
	}
}
