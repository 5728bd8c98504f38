// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

/*
Package supervisor provides process supervision for Tastegraph using
suture v4.

The tree organizes the long-running services into three layers for
failure isolation:

	RootSupervisor ("tastegraph")
	├── SyncSupervisor ("sync-layer")
	│   ├── IntervalService ("sync-meta")
	│   ├── IntervalService ("sync-user")
	│   └── IntervalService ("sync-lookup")
	├── AnalyticsSupervisor ("analytics-layer")
	│   └── IntervalService ("score")
	└── APISupervisor ("api-layer")
	    └── HTTPService ("http-server")

A panic in the scoring pipeline restarts only the analytics layer; the
sync tickers keep firing and the observability endpoints keep serving.

Each IntervalService runs its unit of work immediately on start and then
on every tick. A failed run is logged and retried on the next tick
rather than crashing the service: sync and scoring runs are idempotent
and rerunning is their documented recovery path, so a restart storm
through the supervisor would add nothing.

Crashes (panics, returned errors from Serve itself) are handled by
suture with a failure counter that decays over FailureDecay seconds;
past FailureThreshold the layer backs off for FailureBackoff before
restarting. The defaults in DefaultTreeConfig are suture's own.

Services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil stops the service for good, returning an error schedules a
restart, and a canceled context means shutdown: return promptly.

Supervision events are logged through the sutureslog adapter over the
process zerolog logger (logging.NewSlogLogger), so restarts and backoffs
land in the same structured stream as everything else.

The store backend is not supervised. It is an embedded library, not a
service; a failure there surfaces as a failed run and the next tick
retries it.
*/
package supervisor
