// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package main is the entry point for the Tastegraph server application.
//
// Tastegraph keeps a merged media-consumption record table in sync with
// its metadata and user-tracking sources, and scores every tag (genre,
// studio, franchise, title) against the user's watch history.
//
// # Application Architecture
//
// The server runs a Suture v4 supervision tree:
//
//	RootSupervisor ("tastegraph")
//	├── SyncSupervisor ("sync-layer")
//	│   ├── sync-meta   (metadata channel, interval runs)
//	│   ├── sync-user   (user tracking channel, interval runs)
//	│   └── sync-lookup (grouped tag channel, interval runs)
//	├── AnalyticsSupervisor ("analytics-layer")
//	│   └── score (aggregation + scoring pipeline, interval runs)
//	└── APISupervisor ("api-layer")
//	    └── HTTP server (health, readiness, metrics, status)
//
// Component initialization order:
//
//  1. Configuration: Koanf v2 with environment variables and config files
//  2. Logging: zerolog with JSON/console output modes
//  3. Store: DuckDB file-backed tables, or in-memory for development
//  4. Engines: sync channels and the scoring pipeline over the store
//  5. Supervisor tree: Suture v4 with slog event logging
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//
//	Priority: Environment variables > Config file > Defaults
//
// Core environment variables:
//
//	# Store
//	STORE_BACKEND=duckdb         # duckdb or memory
//	DUCKDB_PATH=/data/tastegraph.duckdb
//	STORE_WRITE_RATE=0           # mutating calls per second (0 = off)
//
//	# Schedules
//	SYNC_INTERVAL=1h             # sync channel cadence
//	SCORING_INTERVAL=24h         # scoring pipeline cadence
//
//	# HTTP server
//	HTTP_PORT=8484
//	LOG_LEVEL=info               # trace, debug, info, warn, error
//	LOG_FORMAT=json              # json or console
//
// # Manual Runs
//
// A single channel can be run synchronously without starting the
// supervisor, which is how cron-style deployments and operators trigger
// catch-up passes:
//
//	tastegraph -once meta        # one metadata sync pass
//	tastegraph -once all         # meta, user, lookup, then score
//
// The process exits non-zero when the run fails; cursors make reruns
// safe.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: scheduled
// runs stop, the HTTP server drains with a bounded shutdown, and the
// store is closed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/tastegraph/internal/analytics"
	"github.com/tomtom215/tastegraph/internal/api"
	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/schema"
	"github.com/tomtom215/tastegraph/internal/store"
	"github.com/tomtom215/tastegraph/internal/supervisor"
	"github.com/tomtom215/tastegraph/internal/sync"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	once := flag.String("once", "", "run one channel synchronously and exit: meta, user, lookup, score, or all")
	seed := flag.Bool("seed", false, "load a demo fixture into an empty store and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.SetAppInfo(version)

	logging.Info().
		Str("version", version).
		Str("backend", cfg.Store.Backend).
		Msg("Starting Tastegraph")

	st, closeStore, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *seed:
		if err := seedDemo(ctx, st, cfg); err != nil {
			closeStore()
			logging.Fatal().Err(err).Msg("Failed to seed demo fixture")
		}
		logging.Info().Msg("Demo fixture loaded")
	case *once != "":
		if err := runOnce(ctx, st, cfg, *once); err != nil {
			// Close before the fatal exit so shutdown is not skipped.
			closeStore()
			logging.Fatal().Err(err).Str("channel", *once).Msg("Manual run failed")
		}
		logging.Info().Str("channel", *once).Msg("Manual run completed")
	default:
		serve(ctx, cancel, st, cfg)
	}

	closeStore()
	logging.Info().Msg("Tastegraph stopped gracefully")
}

// openStore builds the configured store backend, wrapped in the write
// throttle when one is configured. The returned func closes the raw
// backend.
func openStore(cfg *config.Config) (store.Store, func(), error) {
	var (
		st     store.Store
		closer interface{ Close() error }
	)

	switch cfg.Store.Backend {
	case "memory":
		mem := store.NewMemory()
		st, closer = mem, mem
		logging.Warn().Msg("Using in-memory store: data is lost on exit")
	default:
		db, err := store.NewDuckDB(&cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		st, closer = db, db
		logging.Info().Str("path", cfg.Store.Path).Msg("Store initialized")
	}

	if cfg.Store.WriteRatePerSec > 0 {
		st = store.Throttle(st, cfg.Store.WriteRatePerSec, cfg.Store.WriteBurst)
		logging.Info().
			Float64("rate_per_sec", cfg.Store.WriteRatePerSec).
			Int("burst", cfg.Store.WriteBurst).
			Msg("Store write throttle enabled")
	}

	return st, func() {
		if err := closer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}, nil
}

// runOnce executes one channel (or all of them, in dependency order)
// synchronously.
func runOnce(ctx context.Context, st store.Store, cfg *config.Config, channel string) error {
	engine := sync.NewEngine(st, schema.Default())
	scorer := analytics.NewEngine(st, schema.Default())

	channels := []string{channel}
	if channel == "all" {
		channels = []string{"meta", "user", "lookup", "score"}
	}

	for _, ch := range channels {
		var err error
		switch ch {
		case "meta":
			_, err = engine.Run(ctx, sync.MetaChannel(cfg))
		case "user":
			_, err = engine.Run(ctx, sync.UserChannel(cfg))
		case "lookup":
			_, err = engine.RunLookup(ctx, sync.LookupChannel(cfg))
		case "score":
			_, err = scorer.Run(ctx, analytics.ScorePipeline(cfg))
		default:
			return fmt.Errorf("unknown channel %q (want meta, user, lookup, score, or all)", ch)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// serve runs the supervision tree until a shutdown signal arrives.
func serve(ctx context.Context, cancel context.CancelFunc, st store.Store, cfg *config.Config) {
	engine := sync.NewEngine(st, schema.Default())
	scorer := analytics.NewEngine(st, schema.Default())

	treeCfg := supervisor.DefaultTreeConfig()
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Sync.MetaEnabled {
		ch := sync.MetaChannel(cfg)
		tree.AddSyncService(supervisor.NewIntervalService("sync-meta", cfg.Sync.Interval, func(ctx context.Context) error {
			_, err := engine.Run(ctx, ch)
			return err
		}))
	}
	if cfg.Sync.UserEnabled {
		ch := sync.UserChannel(cfg)
		tree.AddSyncService(supervisor.NewIntervalService("sync-user", cfg.Sync.Interval, func(ctx context.Context) error {
			_, err := engine.Run(ctx, ch)
			return err
		}))
	}
	if cfg.Sync.LookupEnabled {
		ch := sync.LookupChannel(cfg)
		tree.AddSyncService(supervisor.NewIntervalService("sync-lookup", cfg.Sync.Interval, func(ctx context.Context) error {
			_, err := engine.RunLookup(ctx, ch)
			return err
		}))
	}
	if cfg.Scoring.Enabled {
		pipeline := analytics.ScorePipeline(cfg)
		tree.AddAnalyticsService(supervisor.NewIntervalService("score", cfg.Scoring.Interval, func(ctx context.Context) error {
			_, err := scorer.Run(ctx, pipeline)
			return err
		}))
	}
	if cfg.Server.Enabled {
		server := api.NewServer(st, cfg.Server)
		httpServer := server.HTTPServer()
		tree.AddAPIService(supervisor.NewHTTPService(httpServer, treeCfg.ShutdownTimeout))
		logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server service added")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished).
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
}
