// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package analytics turns the merged record table into per-tag statistics
// and recommendation signals. One run is three passes in strict sequence:
// a single scan of the record table folding multi-valued tag cells into
// per-tag aggregates, distribution statistics over the tag table's current
// analytic values, and a sweep that rewrites every tag row's analytic
// columns with fresh Count, Hours, Mean Score, Weighted Score and Rec
// Value.
//
// The distribution anchors (median count, median hours, weighted-score
// quartiles) come from the previous run's output on purpose: the scale
// stays stable run-over-run instead of being self-referential within one
// pass.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/schema"
	"github.com/tomtom215/tastegraph/internal/store"
)

// Engine runs the scoring pipeline against one store. It holds no per-run
// state; callers serialize runs.
type Engine struct {
	store  store.Store
	schema schema.Schema
}

// NewEngine creates a scoring engine over the given store and column
// mapping.
func NewEngine(st store.Store, sc schema.Schema) *Engine {
	return &Engine{store: st, schema: sc}
}

// Pipeline names the tables one scoring run reads and writes.
type Pipeline struct {
	// Records is the merged record table the aggregation pass scans.
	Records string
	// Tags is the flat tag table whose analytic columns are rewritten.
	Tags string
}

// ScorePipeline builds the pipeline from configuration.
func ScorePipeline(cfg *config.Config) Pipeline {
	return Pipeline{Records: cfg.Tables.Merged, Tags: cfg.Tables.LookupAll}
}

// Report summarizes one pipeline run.
type Report struct {
	RunID string
	// Records counts the participating records folded into aggregates.
	Records int
	// Tags counts the tag rows rewritten by the sweep.
	Tags    int
	Elapsed time.Duration
	Started time.Time
}

// Run executes one full pipeline pass. Scoring has no cursor: every run
// rebuilds all aggregates from the current record table, so a failed run
// needs no recovery state beyond rerunning.
func (e *Engine) Run(ctx context.Context, p Pipeline) (*Report, error) {
	started := time.Now()
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)

	rep, err := e.score(ctx, p, runID, started)
	if err != nil {
		metrics.RecordScoringRun(time.Since(started), 0, 0, err)
		return nil, fmt.Errorf("score: %w", err)
	}

	metrics.RecordScoringRun(rep.Elapsed, rep.Records, rep.Tags, nil)
	rep.log()
	rep.persist(ctx, e.store)
	return rep, nil
}

func (e *Engine) score(ctx context.Context, p Pipeline, runID string, started time.Time) (*Report, error) {
	agg, err := e.aggregate(ctx, p.Records)
	if err != nil {
		return nil, err
	}

	tags, err := e.store.ReadTable(ctx, p.Tags)
	if err != nil {
		return nil, err
	}
	cols, err := e.resolveTagColumns(tags)
	if err != nil {
		return nil, err
	}

	// Distribution statistics must come from the snapshot before the sweep
	// overwrites it, and the knobs are read once, never inside the row
	// loop.
	stats := groupStatistics(tags, cols)
	params, err := e.loadParams(ctx, groupNames(tags, cols.group))
	if err != nil {
		return nil, err
	}

	written, err := e.sweep(ctx, p.Tags, tags, cols, agg, stats, params)
	if err != nil {
		return nil, err
	}

	rep := &Report{RunID: runID, Records: agg.Records, Tags: written, Started: started}
	rep.Elapsed = time.Since(started)
	return rep, nil
}

func (r *Report) log() {
	logging.Info().
		Str("run_id", r.RunID).
		Int("records", r.Records).
		Int("tags", r.Tags).
		Dur("elapsed", r.Elapsed).
		Msg("Scoring completed")
}

// persist writes the run summary to settings slots, best-effort: a failed
// slot write is logged and the run still counts as successful. Scoring has
// no cursor slot and no touched-ID slot (the sweep touches every row).
func (r *Report) persist(ctx context.Context, st store.Store) {
	slots := []struct {
		name  string
		value string
	}{
		{"report.score.count", strconv.Itoa(r.Tags)},
		{"report.score.records", strconv.Itoa(r.Records)},
		{"report.score.elapsed", strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 3, 64)},
	}
	for _, slot := range slots {
		if err := st.WriteSetting(ctx, slot.name, slot.value); err != nil {
			logging.Warn().Err(err).Str("slot", slot.name).Msg("Report slot write failed")
		}
	}
}
