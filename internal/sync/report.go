// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package sync

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/store"
)

// Report summarizes one completed sync run.
type Report struct {
	// RunID correlates the run's log lines and report slots.
	RunID string
	// Channel is the sync flow that ran (meta, user, lookup).
	Channel string
	// Touched lists the identifiers actually written: Record IDs for the
	// record channels, Group|ID keys for the lookup channel.
	Touched []string
	// Updated counts in-place row writes, Appended new rows, Skipped rows
	// seen but not written (gated out, blank ID, or unchanged).
	Updated  int
	Appended int
	Skipped  int

	Started time.Time
	Elapsed time.Duration
	// Cursor is the new channel cursor, the run's start time.
	Cursor time.Time
}

// reportSlot names a settings slot of a channel's persisted run report.
func reportSlot(channel, field string) string {
	return "report." + channel + "." + field
}

func (r *Report) log() {
	logging.Info().
		Str("run_id", r.RunID).
		Str("channel", r.Channel).
		Int("updated", r.Updated).
		Int("appended", r.Appended).
		Int("skipped", r.Skipped).
		Int("touched", len(r.Touched)).
		Dur("elapsed", r.Elapsed).
		Time("cursor", r.Cursor).
		Msg("Sync completed")
}

// persist writes the run summary to settings slots. Best-effort: a failed
// slot write is logged and never fails the run.
func (r *Report) persist(ctx context.Context, st store.Store) {
	slots := []struct {
		name  string
		value string
	}{
		{reportSlot(r.Channel, "count"), strconv.Itoa(len(r.Touched))},
		{reportSlot(r.Channel, "ids"), strings.Join(r.Touched, ",")},
		{reportSlot(r.Channel, "elapsed"), strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 3, 64)},
		{reportSlot(r.Channel, "cursor"), store.FormatTimestamp(r.Cursor)},
	}
	for _, slot := range slots {
		if err := st.WriteSetting(ctx, slot.name, slot.value); err != nil {
			logging.Warn().Err(err).Str("slot", slot.name).Msg("Failed to persist run report slot")
		}
	}
}
