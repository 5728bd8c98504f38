// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/tastegraph/internal/store"
)

// GroupStats anchors one group's confidence curve and normalization
// window. All four values come from analytic cells written by the previous
// run.
type GroupStats struct {
	MedianCount float64
	MedianHours float64
	P25Weight   float64
	P75Weight   float64
}

// groupStatistics summarizes the tag table's analytic values per group.
// Counts and hours contribute only positive values (a tag nobody touched
// yet must not drag the group median to zero); weighted scores contribute
// every parsable value. Groups with no parsable values at all are absent
// from the result, and the zero GroupStats they read as disables both
// confidence effects.
func groupStatistics(tags *store.Table, cols tagColumns) map[string]GroupStats {
	counts := make(map[string][]float64)
	hours := make(map[string][]float64)
	weights := make(map[string][]float64)

	for _, row := range tags.Rows {
		group := strings.TrimSpace(row[cols.group])
		if group == "" {
			continue
		}
		if v, ok := store.ParseNumber(row[cols.count]); ok && v > 0 {
			counts[group] = append(counts[group], v)
		}
		if v, ok := store.ParseNumber(row[cols.hours]); ok && v > 0 {
			hours[group] = append(hours[group], v)
		}
		if v, ok := store.ParseNumber(row[cols.weighted]); ok {
			weights[group] = append(weights[group], v)
		}
	}

	groups := make(map[string]bool, len(weights))
	for g := range counts {
		groups[g] = true
	}
	for g := range hours {
		groups[g] = true
	}
	for g := range weights {
		groups[g] = true
	}

	stats := make(map[string]GroupStats, len(groups))
	for g := range groups {
		stats[g] = GroupStats{
			MedianCount: median(counts[g]),
			MedianHours: median(hours[g]),
			P25Weight:   percentile(weights[g], 0.25),
			P75Weight:   percentile(weights[g], 0.75),
		}
	}
	return stats
}

// median returns 0 for an empty slice, the middle element for odd length,
// and the average of the two middle elements for even length. The input is
// not modified.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile linearly interpolates between the two values bracketing the
// fractional rank (n-1)*p. Empty input returns 0. The input is not
// modified. p must be in [0, 1].
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	rank := float64(len(sorted)-1) * p
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
