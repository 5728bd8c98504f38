// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package store

import (
	"strconv"
	"strings"
	"time"
)

// Cell parsing helpers shared by the sync and analytics engines. Cells are
// strings; blank means empty after trimming, and anything unparsable is
// treated as absent rather than as an error.

// timestampLayouts are tried in order when parsing timestamp cells.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// IsBlank reports whether the cell is empty after trimming whitespace.
func IsBlank(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

// ParseNumber parses a numeric cell. Returns the value and true on success,
// 0 and false for blank or malformed cells.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseTimestamp parses a timestamp cell. RFC 3339 is canonical; the
// space-separated and date-only layouts cover hand-edited cells. Returns
// the zero time and false for blank or malformed cells.
func ParseTimestamp(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a timestamp the way cursor and report slots store
// them.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SplitTokens splits a multi-valued cell on commas, trims each token, and
// drops blanks. Duplicate tokens are preserved: a record listing a tag twice
// counts twice.
func SplitTokens(cell string) []string {
	if IsBlank(cell) {
		return nil
	}
	parts := strings.Split(cell, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// FormatNumber renders a float the way engine-written numeric cells store
// it: shortest representation that round-trips.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
