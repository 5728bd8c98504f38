// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/tastegraph/internal/metrics"
)

// Throttled decorates a Store with a token-bucket limit on mutating
// operations. Reads pass through unlimited. One mutation consumes one token
// regardless of row count, so batched appends stay cheaper than row-by-row
// writes.
type Throttled struct {
	inner   Store
	limiter *rate.Limiter
}

var (
	_ Store  = (*Throttled)(nil)
	_ Admin  = (*Throttled)(nil)
	_ Pinger = (*Throttled)(nil)
)

// Throttle wraps inner with a write limit of perSec mutations per second.
// A perSec of zero or less disables throttling and returns inner unchanged.
func Throttle(inner Store, perSec float64, burst int) Store {
	if perSec <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// wait blocks until a token is available or ctx is done.
func (t *Throttled) wait(ctx context.Context) error {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttled write canceled: %w", err)
	}
	metrics.StoreThrottleWait.Observe(time.Since(start).Seconds())
	return nil
}

func (t *Throttled) ReadTable(ctx context.Context, table string) (*Table, error) {
	return t.inner.ReadTable(ctx, table)
}

func (t *Throttled) ReadRow(ctx context.Context, table string, row int) ([]string, error) {
	return t.inner.ReadRow(ctx, table, row)
}

func (t *Throttled) WriteRow(ctx context.Context, table string, row int, cells []string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.inner.WriteRow(ctx, table, row, cells)
}

func (t *Throttled) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.inner.AppendRows(ctx, table, rows)
}

func (t *Throttled) ReadSetting(ctx context.Context, name string) (string, error) {
	return t.inner.ReadSetting(ctx, name)
}

func (t *Throttled) WriteSetting(ctx context.Context, name, value string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.inner.WriteSetting(ctx, name, value)
}

// CreateTable forwards to the inner store when it supports administration.
func (t *Throttled) CreateTable(ctx context.Context, table string, header []string) error {
	admin, ok := t.inner.(Admin)
	if !ok {
		return fmt.Errorf("store backend %T does not support table creation", t.inner)
	}
	if err := t.wait(ctx); err != nil {
		return err
	}
	return admin.CreateTable(ctx, table, header)
}

// Ping forwards to the inner store when it supports liveness checks.
func (t *Throttled) Ping(ctx context.Context) error {
	if p, ok := t.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
