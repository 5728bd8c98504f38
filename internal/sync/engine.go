// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package sync implements the incremental, ownership-partitioned
// synchronization flows: the record channels (Meta and User into Merged)
// and the grouped lookup channel (Lookup into Lookup All). Each channel
// copies only the columns it owns, gated by timestamps against a persisted
// cursor, and never touches foreign columns. Reruns against unchanged
// sources are idempotent; a failed run leaves the cursor in place so the
// next run reprocesses from the last good state.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/schema"
	"github.com/tomtom215/tastegraph/internal/store"
)

// Channel names used for cursors, report slots and metric labels.
const (
	ChannelMeta   = "meta"
	ChannelUser   = "user"
	ChannelLookup = "lookup"
)

// Engine runs the sync flows against one store. It holds no per-run state;
// callers serialize runs per channel.
type Engine struct {
	store  store.Store
	schema schema.Schema
}

// NewEngine creates a sync engine over the given store and column mapping.
func NewEngine(st store.Store, sc schema.Schema) *Engine {
	return &Engine{store: st, schema: sc}
}

// Channel describes one record sync flow: which columns it owns, where
// they come from and go to, and how its rows are gated.
type Channel struct {
	// Name labels the channel in cursors, reports, metrics and logs.
	Name string
	// Source and Destination are store table names.
	Source      string
	Destination string
	// TimestampColumn is the source's per-row last-modified column. Empty
	// disables gating: every row is eligible on every run.
	TimestampColumn string
	// CursorSlot is the settings slot persisting the channel's cursor.
	CursorSlot string
	// Owned whitelists the columns this channel may write. An entry
	// missing from either header is silently skipped, tolerating schema
	// drift in both directions.
	Owned []string
	// RequireChange skips the row write when no owned cell differs. The
	// user channel sets it to spare write quota; the meta channel writes
	// eligible rows unconditionally.
	RequireChange bool
}

// MetaChannel builds the metadata flow from configuration.
func MetaChannel(cfg *config.Config) Channel {
	return Channel{
		Name:            ChannelMeta,
		Source:          cfg.Tables.Meta,
		Destination:     cfg.Tables.Merged,
		TimestampColumn: cfg.Sync.MetaTimestampColumn,
		CursorSlot:      cursorSlot(ChannelMeta),
		Owned:           cfg.Sync.MetaColumns,
	}
}

// UserChannel builds the user-tracking flow from configuration.
func UserChannel(cfg *config.Config) Channel {
	return Channel{
		Name:            ChannelUser,
		Source:          cfg.Tables.User,
		Destination:     cfg.Tables.Merged,
		TimestampColumn: cfg.Sync.UserTimestampColumn,
		CursorSlot:      cursorSlot(ChannelUser),
		Owned:           cfg.Sync.UserColumns,
		RequireChange:   true,
	}
}

// Run executes one record sync pass. On success the channel cursor is
// advanced to the run's start time and the report is logged and persisted;
// on error the cursor stays put and already-written rows stand (reruns are
// the recovery path, there is no rollback).
func (e *Engine) Run(ctx context.Context, ch Channel) (*Report, error) {
	started := time.Now()
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)

	rep, err := e.syncRecords(ctx, ch, runID, started)
	if err != nil {
		metrics.RecordSyncRun(ch.Name, time.Since(started), 0, 0, 0, err)
		return nil, fmt.Errorf("sync %s: %w", ch.Name, err)
	}

	metrics.RecordSyncRun(ch.Name, rep.Elapsed, rep.Updated, rep.Appended, rep.Skipped, nil)
	rep.log()
	rep.persist(ctx, e.store)
	return rep, nil
}

// recordColumns holds the per-run resolved column indexes of a record
// channel.
type recordColumns struct {
	srcID int
	dstID int
	// srcTS is -1 when the channel has no timestamp column.
	srcTS int
	owned []ownedColumn
}

// ownedColumn pairs one whitelisted column's index on both sides.
type ownedColumn struct {
	name string
	src  int
	dst  int
}

func (e *Engine) syncRecords(ctx context.Context, ch Channel, runID string, started time.Time) (*Report, error) {
	src, err := e.store.ReadTable(ctx, ch.Source)
	if err != nil {
		return nil, err
	}
	dst, err := e.store.ReadTable(ctx, ch.Destination)
	if err != nil {
		return nil, err
	}

	// Precondition checks happen before the cursor read so a misconfigured
	// channel aborts without a single write.
	cols, err := e.resolveRecordColumns(src, dst, ch)
	if err != nil {
		return nil, err
	}

	cursor, hasCursor, err := loadCursor(ctx, e.store, ch.CursorSlot)
	if err != nil {
		return nil, err
	}

	index, lastRow := destinationIndex(dst, cols.dstID)
	rep := &Report{RunID: runID, Channel: ch.Name, Started: started}

	for _, row := range src.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hasCursor && cols.srcTS >= 0 {
			ts, ok := store.ParseTimestamp(row[cols.srcTS])
			if !ok || ts.Before(cursor) {
				rep.Skipped++
				continue
			}
		}

		id := row[cols.srcID]
		if store.IsBlank(id) {
			rep.Skipped++
			continue
		}

		if dstRow, ok := index[id]; ok {
			wrote, err := e.updateRecord(ctx, ch, cols, dstRow, row)
			if err != nil {
				return nil, err
			}
			if wrote {
				rep.Updated++
				rep.Touched = append(rep.Touched, id)
			} else {
				rep.Skipped++
			}
			continue
		}

		if err := e.appendRecord(ctx, ch, cols, dst.Width(), row); err != nil {
			return nil, err
		}
		// Register the new row so a duplicate source ID later in this
		// pass updates it instead of appending again.
		lastRow++
		index[id] = lastRow
		rep.Appended++
		rep.Touched = append(rep.Touched, id)
	}

	rep.Elapsed = time.Since(started)
	rep.Cursor = started
	if err := saveCursor(ctx, e.store, ch.CursorSlot, started); err != nil {
		return nil, err
	}
	return rep, nil
}

// resolveRecordColumns maps the channel's column names to header indexes.
// The Record ID (both sides) and a configured timestamp column (source
// side) are required; owned columns missing on either side are skipped.
func (e *Engine) resolveRecordColumns(src, dst *store.Table, ch Channel) (*recordColumns, error) {
	srcID, err := src.RequireColumn(e.schema.Record.ID)
	if err != nil {
		return nil, err
	}
	dstID, err := dst.RequireColumn(e.schema.Record.ID)
	if err != nil {
		return nil, err
	}

	cols := &recordColumns{srcID: srcID, dstID: dstID, srcTS: -1}
	if ch.TimestampColumn != "" {
		if cols.srcTS, err = src.RequireColumn(ch.TimestampColumn); err != nil {
			return nil, err
		}
	}

	for _, name := range ch.Owned {
		si := src.ColumnIndex(name)
		di := dst.ColumnIndex(name)
		if si < 0 || di < 0 {
			logging.Debug().
				Str("channel", ch.Name).
				Str("column", name).
				Bool("in_source", si >= 0).
				Bool("in_destination", di >= 0).
				Msg("Owned column missing on one side, skipped")
			continue
		}
		cols.owned = append(cols.owned, ownedColumn{name: name, src: si, dst: di})
	}
	return cols, nil
}

// destinationIndex maps Record ID to destination row number from one full
// table read. First occurrence wins when an ID appears twice. Returns the
// index and the current last occupied row.
func destinationIndex(dst *store.Table, idCol int) (map[string]int, int) {
	index := make(map[string]int, len(dst.Rows))
	for i, row := range dst.Rows {
		id := row[idCol]
		if store.IsBlank(id) {
			continue
		}
		if _, dup := index[id]; !dup {
			index[id] = dst.RowNumber(i)
		}
	}
	return index, dst.LastRow()
}

// updateRecord overwrites the owned cells of one destination row and
// writes the row back whole, preserving every foreign cell. The row is
// fetched fresh rather than taken from the run's snapshot so hand edits
// made since the snapshot survive in non-owned cells. With RequireChange
// set the write is skipped when no owned cell differs literally.
func (e *Engine) updateRecord(ctx context.Context, ch Channel, cols *recordColumns, dstRow int, src []string) (bool, error) {
	current, err := e.store.ReadRow(ctx, ch.Destination, dstRow)
	if err != nil {
		return false, err
	}

	updated := append([]string(nil), current...)
	changed := false
	for _, col := range cols.owned {
		if updated[col.dst] != src[col.src] {
			updated[col.dst] = src[col.src]
			changed = true
		}
	}

	if ch.RequireChange && !changed {
		return false, nil
	}
	if err := e.store.WriteRow(ctx, ch.Destination, dstRow, updated); err != nil {
		return false, err
	}
	return true, nil
}

// appendRecord synthesizes a destination row with only the Record ID and
// owned cells populated, every other cell blank, and appends it.
func (e *Engine) appendRecord(ctx context.Context, ch Channel, cols *recordColumns, width int, src []string) error {
	row := make([]string, width)
	row[cols.dstID] = src[cols.srcID]
	for _, col := range cols.owned {
		row[col.dst] = src[col.src]
	}
	return e.store.AppendRows(ctx, ch.Destination, [][]string{row})
}
