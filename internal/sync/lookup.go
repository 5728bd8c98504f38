// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
	"github.com/tomtom215/tastegraph/internal/store"
)

// GroupedChannel describes the grouped lookup flow: named row ranges of
// the source table flattened into one destination keyed by Group|ID.
type GroupedChannel struct {
	Name string
	// Source is the grouped lookup table; Index the table describing its
	// group row ranges; Destination the flat table being maintained.
	Source      string
	Index       string
	Destination string
	CursorSlot  string
}

// LookupChannel builds the grouped lookup flow from configuration.
func LookupChannel(cfg *config.Config) GroupedChannel {
	return GroupedChannel{
		Name:        ChannelLookup,
		Source:      cfg.Tables.Lookup,
		Index:       cfg.Tables.LookupIndex,
		Destination: cfg.Tables.LookupAll,
		CursorSlot:  cursorSlot(ChannelLookup),
	}
}

// group is one contiguous row range of the lookup source, resolved from
// the index table before any scanning starts.
type group struct {
	Name         string
	SourceColumn string
	StartRow     int
	EndRow       int
	LastUpdated  time.Time
	HasUpdated   bool
}

// RunLookup executes one grouped lookup pass. Groups whose last-updated
// marker is not strictly newer than the cursor are skipped whole; this is
// coarser than per-row gating on purpose, trading precision for throughput
// on large dimension tables.
func (e *Engine) RunLookup(ctx context.Context, ch GroupedChannel) (*Report, error) {
	started := time.Now()
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)

	rep, err := e.syncGroups(ctx, ch, runID, started)
	if err != nil {
		metrics.RecordSyncRun(ch.Name, time.Since(started), 0, 0, 0, err)
		return nil, fmt.Errorf("sync %s: %w", ch.Name, err)
	}

	metrics.RecordSyncRun(ch.Name, rep.Elapsed, rep.Updated, rep.Appended, rep.Skipped, nil)
	rep.log()
	rep.persist(ctx, e.store)
	return rep, nil
}

func (e *Engine) syncGroups(ctx context.Context, ch GroupedChannel, runID string, started time.Time) (*Report, error) {
	groups, err := e.resolveGroups(ctx, ch.Index)
	if err != nil {
		return nil, err
	}
	src, err := e.store.ReadTable(ctx, ch.Source)
	if err != nil {
		return nil, err
	}
	dst, err := e.store.ReadTable(ctx, ch.Destination)
	if err != nil {
		return nil, err
	}

	srcID, err := src.RequireColumn(e.schema.Lookup.ID)
	if err != nil {
		return nil, err
	}
	srcName, err := src.RequireColumn(e.schema.Lookup.Name)
	if err != nil {
		return nil, err
	}
	cols, err := e.resolveCanonicalColumns(dst)
	if err != nil {
		return nil, err
	}

	cursor, hasCursor, err := loadCursor(ctx, e.store, ch.CursorSlot)
	if err != nil {
		return nil, err
	}

	run := &lookupRun{
		engine:  e,
		ch:      ch,
		rep:     &Report{RunID: runID, Channel: ch.Name, Started: started},
		src:     src,
		dst:     dst,
		srcID:   srcID,
		srcName: srcName,
		cols:    cols,
		width:   dst.Width(),
		index:   lookupIndex(dst, cols),
		queued:  make(map[string]bool),
	}

	for _, g := range groups {
		if hasCursor && (!g.HasUpdated || !g.LastUpdated.After(cursor)) {
			logging.Ctx(ctx).Debug().
				Str("group", g.Name).
				Time("last_updated", g.LastUpdated).
				Msg("Group not newer than cursor, skipped whole")
			continue
		}
		run.scanGroup(g)
	}

	if err := run.flush(ctx); err != nil {
		return nil, err
	}

	run.rep.Elapsed = time.Since(started)
	run.rep.Cursor = started
	if err := saveCursor(ctx, e.store, ch.CursorSlot, started); err != nil {
		return nil, err
	}
	return run.rep, nil
}

// resolveGroups reads the index table into explicit group descriptors.
// Resolving "where a group lives" stays separate from scanning "what a
// group contains". Rows with a blank group name or malformed row range
// are skipped.
func (e *Engine) resolveGroups(ctx context.Context, table string) ([]group, error) {
	idx, err := e.store.ReadTable(ctx, table)
	if err != nil {
		return nil, err
	}

	nameCol, err := idx.RequireColumn(e.schema.Index.Group)
	if err != nil {
		return nil, err
	}
	sourceCol, err := idx.RequireColumn(e.schema.Index.SourceColumn)
	if err != nil {
		return nil, err
	}
	startCol, err := idx.RequireColumn(e.schema.Index.StartRow)
	if err != nil {
		return nil, err
	}
	endCol, err := idx.RequireColumn(e.schema.Index.EndRow)
	if err != nil {
		return nil, err
	}
	updatedCol, err := idx.RequireColumn(e.schema.Index.LastUpdated)
	if err != nil {
		return nil, err
	}

	var groups []group
	for i, row := range idx.Rows {
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}

		start, okStart := store.ParseNumber(row[startCol])
		end, okEnd := store.ParseNumber(row[endCol])
		if !okStart || !okEnd || int(end) < int(start) {
			logging.Warn().
				Str("group", name).
				Int("row", idx.RowNumber(i)).
				Str("start", row[startCol]).
				Str("end", row[endCol]).
				Msg("Malformed group row range, skipped")
			continue
		}

		g := group{
			Name:         name,
			SourceColumn: strings.TrimSpace(row[sourceCol]),
			StartRow:     int(start),
			EndRow:       int(end),
		}
		if g.StartRow < 2 {
			// Row 1 is the header; a range starting there clamps past it.
			g.StartRow = 2
		}
		if ts, ok := store.ParseTimestamp(row[updatedCol]); ok {
			g.LastUpdated = ts
			g.HasUpdated = true
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// canonicalColumns holds the destination indexes of the lookup-owned
// fields.
type canonicalColumns struct {
	group  int
	source int
	id     int
	name   int
}

func (e *Engine) resolveCanonicalColumns(dst *store.Table) (canonicalColumns, error) {
	var cols canonicalColumns
	var err error
	if cols.group, err = dst.RequireColumn(e.schema.All.Group); err != nil {
		return cols, err
	}
	if cols.source, err = dst.RequireColumn(e.schema.All.SourceColumn); err != nil {
		return cols, err
	}
	if cols.id, err = dst.RequireColumn(e.schema.All.ID); err != nil {
		return cols, err
	}
	if cols.name, err = dst.RequireColumn(e.schema.All.Name); err != nil {
		return cols, err
	}
	return cols, nil
}

// lookupIndex keys destination rows by "Group|ID", both parts trimmed,
// case-sensitive. First occurrence wins.
func lookupIndex(dst *store.Table, cols canonicalColumns) map[string]int {
	index := make(map[string]int, len(dst.Rows))
	for i, row := range dst.Rows {
		id := strings.TrimSpace(row[cols.id])
		if id == "" {
			continue
		}
		key := strings.TrimSpace(row[cols.group]) + "|" + id
		if _, dup := index[key]; !dup {
			index[key] = dst.RowNumber(i)
		}
	}
	return index
}

// lookupRun carries the scan state of one grouped pass. Scanning queues
// work; flush applies it after all groups are classified.
type lookupRun struct {
	engine  *Engine
	ch      GroupedChannel
	rep     *Report
	src     *store.Table
	dst     *store.Table
	srcID   int
	srcName int
	cols    canonicalColumns
	width   int
	index   map[string]int
	// queued guards against appending the same Group|ID twice when a
	// source row repeats within one pass.
	queued  map[string]bool
	updates []lookupUpdate
	appends [][]string
}

// lookupUpdate is one queued in-place canonical-field update.
type lookupUpdate struct {
	row    int
	name   string
	source string
}

func (r *lookupRun) scanGroup(g group) {
	end := g.EndRow
	if last := r.src.LastRow(); end > last {
		end = last
	}
	for rowNum := g.StartRow; rowNum <= end; rowNum++ {
		if r.scanRow(g, rowNum) {
			break
		}
	}
}

// scanRow classifies one source row inside a group and reports whether the
// group scan should stop. A fully blank row terminates the group; a row
// with just a blank ID is skipped but tolerated (sparse rows).
func (r *lookupRun) scanRow(g group, rowNum int) bool {
	row := r.src.Rows[rowNum-2]
	if rowIsBlank(row) {
		return true
	}

	id := strings.TrimSpace(row[r.srcID])
	if id == "" {
		r.rep.Skipped++
		return false
	}
	name := row[r.srcName]
	key := g.Name + "|" + id

	dstRow, exists := r.index[key]
	switch {
	case exists:
		current := r.dst.Rows[dstRow-2]
		if current[r.cols.name] != name || current[r.cols.source] != g.SourceColumn {
			r.updates = append(r.updates, lookupUpdate{row: dstRow, name: name, source: g.SourceColumn})
			r.rep.Touched = append(r.rep.Touched, key)
		} else {
			r.rep.Skipped++
		}
	case !r.queued[key]:
		r.queued[key] = true
		appendRow := make([]string, r.width)
		appendRow[r.cols.group] = g.Name
		appendRow[r.cols.source] = g.SourceColumn
		appendRow[r.cols.id] = id
		appendRow[r.cols.name] = name
		r.appends = append(r.appends, appendRow)
		r.rep.Touched = append(r.rep.Touched, key)
	default:
		r.rep.Skipped++
	}
	return false
}

// flush applies the queued work: updates row by row (the store's atom is
// the row, and each write must preserve that row's foreign cells), appends
// as one batched call.
func (r *lookupRun) flush(ctx context.Context) error {
	for _, u := range r.updates {
		if err := ctx.Err(); err != nil {
			return err
		}
		current, err := r.engine.store.ReadRow(ctx, r.ch.Destination, u.row)
		if err != nil {
			return err
		}
		updated := append([]string(nil), current...)
		updated[r.cols.name] = u.name
		updated[r.cols.source] = u.source
		if err := r.engine.store.WriteRow(ctx, r.ch.Destination, u.row, updated); err != nil {
			return err
		}
		r.rep.Updated++
	}

	if len(r.appends) > 0 {
		if err := r.engine.store.AppendRows(ctx, r.ch.Destination, r.appends); err != nil {
			return err
		}
		r.rep.Appended = len(r.appends)
	}
	return nil
}

// rowIsBlank reports whether every cell of a row is blank.
func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if !store.IsBlank(cell) {
			return false
		}
	}
	return true
}
