// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package schema declares the column-role mapping the engines share: which
// header names carry record identity, participation, duration and score,
// and which headers mark multi-valued tag dimensions. Roles are resolved
// against table headers by exact string match (no trimming, no case
// folding) so the mapping stays a contract rather than a heuristic. The
// mapping is validated once at startup instead of scattering name lookups
// through the engines.
package schema

import (
	"fmt"
	"strings"
)

// RecordColumns names the roles on record tables (Meta, User, Merged).
type RecordColumns struct {
	// ID is the stable record identifier column.
	ID string
	// Episodes gates aggregation participation: a record takes part
	// only when this cell is non-blank.
	Episodes string
	// Watchtime is the accumulated duration column, in minutes.
	Watchtime string
	// Score is the user rating column.
	Score string
	// DimensionSuffix marks multi-valued tag columns: every header
	// ending in this literal suffix is a dimension.
	DimensionSuffix string
}

// LookupColumns names the roles on the grouped lookup source table.
type LookupColumns struct {
	ID   string
	Name string
}

// IndexColumns names the roles on the group-metadata table that describes
// which contiguous lookup rows belong to which group.
type IndexColumns struct {
	Group        string
	SourceColumn string
	StartRow     string
	EndRow       string
	LastUpdated  string
}

// AllColumns names the roles on the flat lookup destination table. Group,
// SourceColumn, ID and Name are canonical fields owned by the lookup sync;
// the remaining five are analytic fields owned by the scoring engine.
type AllColumns struct {
	Group        string
	SourceColumn string
	ID           string
	Name         string

	Count         string
	Hours         string
	MeanScore     string
	WeightedScore string
	RecValue      string
}

// Schema is the full column-role mapping, constructed once and passed into
// every engine.
type Schema struct {
	Record RecordColumns
	Lookup LookupColumns
	Index  IndexColumns
	All    AllColumns
}

// Default returns the canonical mapping. The names are a wire contract
// with the spreadsheets this system syncs against and must not be derived
// from process configuration.
func Default() Schema {
	return Schema{
		Record: RecordColumns{
			ID:              "Anime ID",
			Episodes:        "Episodes Watched",
			Watchtime:       "User Watchtime",
			Score:           "User Score",
			DimensionSuffix: " ID",
		},
		Lookup: LookupColumns{
			ID:   "ID",
			Name: "Name",
		},
		Index: IndexColumns{
			Group:        "Group",
			SourceColumn: "Source Column",
			StartRow:     "Start Row",
			EndRow:       "End Row",
			LastUpdated:  "Last Updated",
		},
		All: AllColumns{
			Group:         "Group",
			SourceColumn:  "Source Column",
			ID:            "ID",
			Name:          "Name",
			Count:         "User Count",
			Hours:         "User Hours",
			MeanScore:     "User Mean Score",
			WeightedScore: "Weighted Score",
			RecValue:      "Rec Value",
		},
	}
}

// Validate checks that every role has a header name.
func (s Schema) Validate() error {
	roles := []struct {
		role string
		name string
	}{
		{"record id", s.Record.ID},
		{"episodes", s.Record.Episodes},
		{"watchtime", s.Record.Watchtime},
		{"score", s.Record.Score},
		{"lookup id", s.Lookup.ID},
		{"lookup name", s.Lookup.Name},
		{"index group", s.Index.Group},
		{"index source column", s.Index.SourceColumn},
		{"index start row", s.Index.StartRow},
		{"index end row", s.Index.EndRow},
		{"index last updated", s.Index.LastUpdated},
		{"lookup-all group", s.All.Group},
		{"lookup-all source column", s.All.SourceColumn},
		{"lookup-all id", s.All.ID},
		{"lookup-all name", s.All.Name},
		{"lookup-all count", s.All.Count},
		{"lookup-all hours", s.All.Hours},
		{"lookup-all mean score", s.All.MeanScore},
		{"lookup-all weighted score", s.All.WeightedScore},
		{"lookup-all rec value", s.All.RecValue},
	}
	for _, r := range roles {
		if strings.TrimSpace(r.name) == "" {
			return fmt.Errorf("schema: %s column name is blank", r.role)
		}
	}
	if s.Record.DimensionSuffix == "" {
		return fmt.Errorf("schema: dimension suffix is blank")
	}
	return nil
}

// IsDimension reports whether a header names a multi-valued tag column.
// The record ID column itself matches the suffix rule; that is deliberate,
// so a lookup group may enumerate individual records.
func (s Schema) IsDimension(header string) bool {
	return strings.HasSuffix(header, s.Record.DimensionSuffix)
}

// Analytic returns the scoring-engine-owned column names in write order.
func (a AllColumns) Analytic() []string {
	return []string{a.Count, a.Hours, a.MeanScore, a.WeightedScore, a.RecValue}
}
