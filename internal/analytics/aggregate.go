// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package analytics

import (
	"context"

	"github.com/tomtom215/tastegraph/internal/store"
)

// TagKey identifies one tag by the dimension column that produced it and
// the tag's ID token.
type TagKey struct {
	Column string
	ID     string
}

// TagAggregate accumulates one tag's consumption statistics across all
// participating records.
type TagAggregate struct {
	Count      int
	Minutes    float64
	ScoreSum   float64
	ScoreCount int
}

// Mean returns the mean score and whether any score was accumulated.
func (a *TagAggregate) Mean() (float64, bool) {
	if a.ScoreCount == 0 {
		return 0, false
	}
	return a.ScoreSum / float64(a.ScoreCount), true
}

// Aggregate is the in-memory output of one aggregation pass. It is rebuilt
// from scratch every run and never persisted on its own.
type Aggregate struct {
	Tags    map[TagKey]*TagAggregate
	Records int
}

// aggregate scans the record table once, folding every participating
// record into per-tag statistics. A record participates iff its presence
// cell is non-blank; that is the sole gate, so a record with zero
// watchtime or an unparsable score still counts toward occurrence.
//
// Tag tokens are comma-split and trimmed, with blanks dropped. Duplicate
// tokens within one cell are counted each time they appear: a record
// listing a tag twice weights it twice.
func (e *Engine) aggregate(ctx context.Context, table string) (*Aggregate, error) {
	rec, err := e.store.ReadTable(ctx, table)
	if err != nil {
		return nil, err
	}

	presence, err := rec.RequireColumn(e.schema.Record.Episodes)
	if err != nil {
		return nil, err
	}
	watchtime, err := rec.RequireColumn(e.schema.Record.Watchtime)
	if err != nil {
		return nil, err
	}
	score, err := rec.RequireColumn(e.schema.Record.Score)
	if err != nil {
		return nil, err
	}

	// Dimension columns are discovered from the header by suffix. The
	// record ID column carries the suffix too, which gives every title its
	// own per-record tag.
	var dimensions []int
	for i, h := range rec.Header {
		if e.schema.IsDimension(h) {
			dimensions = append(dimensions, i)
		}
	}

	agg := &Aggregate{Tags: make(map[TagKey]*TagAggregate)}
	for _, row := range rec.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if store.IsBlank(row[presence]) {
			continue
		}
		agg.Records++

		// Minutes accumulate unconditionally (unparsable reads as zero);
		// scores accumulate only when they parse.
		minutes, _ := store.ParseNumber(row[watchtime])
		scoreVal, scoreOK := store.ParseNumber(row[score])

		for _, col := range dimensions {
			for _, id := range store.SplitTokens(row[col]) {
				key := TagKey{Column: rec.Header[col], ID: id}
				tag := agg.Tags[key]
				if tag == nil {
					tag = &TagAggregate{}
					agg.Tags[key] = tag
				}
				tag.Count++
				tag.Minutes += minutes
				if scoreOK {
					tag.ScoreSum += scoreVal
					tag.ScoreCount++
				}
			}
		}
	}
	return agg, nil
}
