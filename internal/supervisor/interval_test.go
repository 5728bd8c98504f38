// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestIntervalServiceImplementsService(t *testing.T) {
	var _ suture.Service = (*IntervalService)(nil)
	var _ suture.Service = (*HTTPService)(nil)
}

func TestIntervalServiceRunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	svc := NewIntervalService("test", time.Hour, func(context.Context) error {
		ran <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first run did not fire on start")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestIntervalServiceTicks(t *testing.T) {
	var runs atomic.Int32
	svc := NewIntervalService("test", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs, want at least 3", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestIntervalServiceContinuesAfterFailure(t *testing.T) {
	var runs atomic.Int32
	svc := NewIntervalService("test", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("run failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	// A failed run must not stop the schedule.
	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d runs after failure, want at least 2", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestIntervalServiceSerializesRuns(t *testing.T) {
	var active, peak atomic.Int32
	svc := NewIntervalService("test", time.Hour, func(context.Context) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.RunNow(context.Background())
		}()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Errorf("peak concurrent runs = %d, want 1", got)
	}
}

func TestIntervalServiceDefaultsInterval(t *testing.T) {
	svc := NewIntervalService("test", 0, func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// The zero interval must not panic the ticker; give Serve a moment
	// to reach its loop before shutting down.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestIntervalServiceString(t *testing.T) {
	svc := NewIntervalService("sync-meta", time.Minute, nil)
	if svc.String() != "sync-meta" {
		t.Errorf("String() = %q, want sync-meta", svc.String())
	}
}
