// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/logging"
)

// RunFunc is one scheduled unit of work: a sync channel pass or a
// scoring pipeline pass.
type RunFunc func(ctx context.Context) error

// IntervalService runs a RunFunc immediately on start and then on every
// tick. A failed run is logged and retried on the next tick; runs are
// idempotent and rerunning is their recovery path, so the failure never
// propagates to the supervisor.
type IntervalService struct {
	name     string
	interval time.Duration
	run      RunFunc
	logger   zerolog.Logger

	// mu serializes runs between the ticker loop and RunNow callers.
	mu sync.Mutex
}

// NewIntervalService creates a scheduled service. The name identifies it
// in supervision events and logs.
func NewIntervalService(name string, interval time.Duration, run RunFunc) *IntervalService {
	return &IntervalService{
		name:     name,
		interval: interval,
		run:      run,
		logger:   logging.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service. It blocks until the context is
// canceled.
func (s *IntervalService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.interval = time.Hour
	}
	s.logger.Info().Dur("interval", s.interval).Msg("Scheduled service starting")

	s.runAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduled service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

// RunNow executes one run immediately, blocking until any in-flight run
// finishes first.
func (s *IntervalService) RunNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx)
}

func (s *IntervalService) runAndLog(ctx context.Context) {
	// The run itself logs its report; only failures need a line here.
	// A failure caused by shutdown is not worth a warning.
	if err := s.RunNow(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Msg("Run failed, retrying on schedule")
	}
}

// String implements fmt.Stringer. Suture uses it to identify the service
// in supervision events.
func (s *IntervalService) String() string {
	return s.name
}
