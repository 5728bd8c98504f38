// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package analytics

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/tastegraph/internal/store"
)

// Fixed constants of the scoring model. The anchor is the neutral score;
// the blend weights make duration the primary trust signal with occurrence
// count secondary.
const (
	scoreAnchor = 50.0

	countEffectExponent = 0.85
	countBlendWeight    = 0.20
	hoursBlendWeight    = 0.80
)

// tagColumns holds the resolved column indexes of the flat tag table.
type tagColumns struct {
	group    int
	source   int
	id       int
	count    int
	hours    int
	mean     int
	weighted int
	rec      int
}

func (e *Engine) resolveTagColumns(tags *store.Table) (tagColumns, error) {
	var cols tagColumns
	var err error
	if cols.group, err = tags.RequireColumn(e.schema.All.Group); err != nil {
		return cols, err
	}
	if cols.source, err = tags.RequireColumn(e.schema.All.SourceColumn); err != nil {
		return cols, err
	}
	if cols.id, err = tags.RequireColumn(e.schema.All.ID); err != nil {
		return cols, err
	}
	if cols.count, err = tags.RequireColumn(e.schema.All.Count); err != nil {
		return cols, err
	}
	if cols.hours, err = tags.RequireColumn(e.schema.All.Hours); err != nil {
		return cols, err
	}
	if cols.mean, err = tags.RequireColumn(e.schema.All.MeanScore); err != nil {
		return cols, err
	}
	if cols.weighted, err = tags.RequireColumn(e.schema.All.WeightedScore); err != nil {
		return cols, err
	}
	if cols.rec, err = tags.RequireColumn(e.schema.All.RecValue); err != nil {
		return cols, err
	}
	return cols, nil
}

// groupNames returns the distinct trimmed group names of the tag table in
// first-seen order.
func groupNames(tags *store.Table, groupCol int) []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range tags.Rows {
		g := strings.TrimSpace(row[groupCol])
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		names = append(names, g)
	}
	return names
}

// sweep rewrites the analytic cells of every tag row. The table is wholly
// engine-owned for these five columns, so rows are written unconditionally
// with no change detection; foreign cells are carried over from the
// snapshot untouched.
func (e *Engine) sweep(ctx context.Context, table string, tags *store.Table, cols tagColumns, agg *Aggregate, stats map[string]GroupStats, params *Params) (int, error) {
	written := 0
	for i, row := range tags.Rows {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		updated := append([]string(nil), row...)
		scoreRow(updated, cols, agg, stats, params)
		if err := e.store.WriteRow(ctx, table, tags.RowNumber(i), updated); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// scoreRow fills the five analytic cells of one tag row in place. A tag no
// participating record ever touched gets all five cells blanked; a touched
// tag without a single parsable score gets count and hours but no mean,
// and the two derived scores stay blank with it.
func scoreRow(row []string, cols tagColumns, agg *Aggregate, stats map[string]GroupStats, params *Params) {
	group := strings.TrimSpace(row[cols.group])
	key := TagKey{
		Column: strings.TrimSpace(row[cols.source]),
		ID:     strings.TrimSpace(row[cols.id]),
	}

	tag := agg.Tags[key]
	if tag == nil {
		for _, c := range []int{cols.count, cols.hours, cols.mean, cols.weighted, cols.rec} {
			row[c] = ""
		}
		return
	}

	hours := roundTo(tag.Minutes/60, 2)
	row[cols.count] = strconv.Itoa(tag.Count)
	row[cols.hours] = store.FormatNumber(hours)

	mean, ok := tag.Mean()
	if !ok {
		row[cols.mean] = ""
		row[cols.weighted] = ""
		row[cols.rec] = ""
		return
	}
	row[cols.mean] = store.FormatNumber(roundTo(mean, 2))

	gs := stats[group]
	weighted := weightedScore(float64(tag.Count), hours, mean, gs, params)
	row[cols.weighted] = store.FormatNumber(weighted)

	bounds, ok := params.Bounds[group]
	if !ok {
		bounds = defaultBounds
	}
	row[cols.rec] = store.FormatNumber(recValue(weighted, gs, bounds))
}

// weightedScore regresses the mean toward the neutral anchor by confidence
// and stretches the result outward:
//
//	countEffect = (count / (count + medianCount)) ^ 0.85
//	hoursEffect = (hours / (hours + medianHours)) ^ hoursExponent
//	confidence  = clamp(0.20*countEffect + 0.80*hoursEffect, floor, ceiling)
//	base        = 50 + (mean - 50) * confidence
//	stretched   = 50 + (base - 50) * spread
//	weighted    = clamp(stretched, 0, 100), 4 decimals
//
// An effect is 0 when its group median is not positive: a cold group has
// no scale to trust yet, so confidence bottoms out at the floor.
func weightedScore(count, hours, mean float64, gs GroupStats, params *Params) float64 {
	countEffect := 0.0
	if gs.MedianCount > 0 {
		countEffect = math.Pow(count/(count+gs.MedianCount), countEffectExponent)
	}
	hoursEffect := 0.0
	if gs.MedianHours > 0 {
		hoursEffect = math.Pow(hours/(hours+gs.MedianHours), params.HoursExponent)
	}

	confidence := clamp(countBlendWeight*countEffect+hoursBlendWeight*hoursEffect,
		params.MinConfidence, params.MaxConfidence)
	base := scoreAnchor + (mean-scoreAnchor)*confidence
	stretched := scoreAnchor + (base-scoreAnchor)*params.Spread
	return roundTo(clamp(stretched, 0, 100), 4)
}

// recValue normalizes a weighted score into the group's rec bounds via the
// previous run's interquartile range:
//
//	norm   = ((weighted - p25) / (p75 - p25)) * 2 - 1, clamped to [-1, 1]
//	mapped = min + (norm + 1) * (max - min) / 2, 3 decimals
//
// A degenerate window (p75 == p25) normalizes to 0, the midpoint of the
// bounds.
func recValue(weighted float64, gs GroupStats, b Bounds) float64 {
	norm := 0.0
	if gs.P75Weight != gs.P25Weight {
		norm = (weighted-gs.P25Weight)/(gs.P75Weight-gs.P25Weight)*2 - 1
	}
	norm = clamp(norm, -1, 1)
	return roundTo(b.Min+(norm+1)*(b.Max-b.Min)/2, 3)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundTo rounds half away from zero at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow10(decimals)
	return math.Round(v*pow) / pow
}
