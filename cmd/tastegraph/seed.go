// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/store"
)

// seedDemo loads a small development fixture into an empty store: a few
// anime with metadata and watch history, a grouped tag sheet with its
// index, and empty destination tables for the sync channels and the
// scoring pipeline to fill. Column layout follows the default
// configuration; table names follow the loaded one.
//
// Refuses to run against a store that already has the metadata table, so
// a stray -seed cannot wipe real data.
func seedDemo(ctx context.Context, st store.Store, cfg *config.Config) error {
	admin, ok := st.(store.Admin)
	if !ok {
		return errors.New("store backend cannot create tables")
	}

	if _, err := st.ReadTable(ctx, cfg.Tables.Meta); err == nil {
		return fmt.Errorf("table %s already exists, refusing to overwrite", cfg.Tables.Meta)
	} else if !errors.Is(err, store.ErrTableNotFound) {
		return err
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{
			name: cfg.Tables.Meta,
			header: []string{
				"Anime ID", "Title", "Type", "Season", "Episode Count",
				"Genre ID", "Studio ID", "Franchise ID", "Meta Updated",
			},
			rows: [][]string{
				{"101", "Midnight Circuit", "TV", "2025 Fall", "12", "G1, G2", "S1", "F1", "2026-01-10T08:00:00Z"},
				{"102", "Paper Lanterns", "Movie", "2025", "1", "G2", "S2", "", "2026-01-12T09:30:00Z"},
				{"103", "Static Bloom", "TV", "2026 Winter", "24", "G1, G3", "S1, S2", "", "2026-02-01T18:15:00Z"},
				{"104", "Harbor Lights", "TV", "2026 Winter", "13", "G3", "S2", "F1", "2026-02-04T11:00:00Z"},
			},
		},
		{
			name: cfg.Tables.User,
			header: []string{
				"Anime ID", "Episodes Watched", "User Watchtime",
				"User Score", "User Status", "User Updated",
			},
			rows: [][]string{
				{"101", "12", "288", "80", "Completed", "2026-02-03T20:00:00Z"},
				{"102", "1", "105", "70", "Completed", "2026-01-20T21:10:00Z"},
				{"103", "6", "144", "", "Watching", "2026-02-05T22:45:00Z"},
			},
		},
		{
			// The merged table starts empty; the sync channels fill it.
			name: cfg.Tables.Merged,
			header: []string{
				"Anime ID", "Title", "Type", "Season", "Episode Count",
				"Genre ID", "Studio ID", "Franchise ID", "Meta Updated",
				"Episodes Watched", "User Watchtime", "User Score",
				"User Status", "User Updated",
			},
		},
		{
			name:   cfg.Tables.Lookup,
			header: []string{"ID", "Name"},
			rows: [][]string{
				{"G1", "Action"},
				{"G2", "Drama"},
				{"G3", "Comedy"},
				{"S1", "Studio Argent"},
				{"S2", "Bright Owl Animation"},
				{"F1", "Harbor Lights Saga"},
			},
		},
		{
			// Row ranges address the lookup sheet: row 1 is the header,
			// genres sit on rows 2-4, studios on 5-6, franchises on 7.
			name:   cfg.Tables.LookupIndex,
			header: []string{"Group", "Source Column", "Start Row", "End Row", "Last Updated"},
			rows: [][]string{
				{"Genre", "Genre ID", "2", "4", ""},
				{"Studio", "Studio ID", "5", "6", ""},
				{"Franchise", "Franchise ID", "7", "7", ""},
			},
		},
		{
			name: cfg.Tables.LookupAll,
			header: []string{
				"Group", "Source Column", "ID", "Name", "User Count",
				"User Hours", "User Mean Score", "Weighted Score", "Rec Value",
			},
		},
	}

	for _, tbl := range tables {
		if err := admin.CreateTable(ctx, tbl.name, tbl.header); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tbl.name, err)
		}
		if len(tbl.rows) > 0 {
			if err := st.AppendRows(ctx, tbl.name, tbl.rows); err != nil {
				return fmt.Errorf("failed to seed table %s: %w", tbl.name, err)
			}
		}
		logging.Info().Str("table", tbl.name).Int("rows", len(tbl.rows)).Msg("Seeded table")
	}
	return nil
}
