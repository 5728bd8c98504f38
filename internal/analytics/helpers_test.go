// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package analytics

import (
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/tastegraph/internal/schema"
	"github.com/tomtom215/tastegraph/internal/store"
)

var (
	recordHeader    = []string{"Anime ID", "Title", "Genre ID", "Studio ID", "Episodes Watched", "User Watchtime", "User Score"}
	lookupAllHeader = []string{"Group", "Source Column", "ID", "Name", "User Count", "User Hours", "User Mean Score", "Weighted Score", "Rec Value"}
)

func testPipeline() Pipeline {
	return Pipeline{Records: "Merged", Tags: "Lookup All"}
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	return NewEngine(m, schema.Default()), m
}

func mustTable(t *testing.T, m *store.Memory, name string, header []string, rows ...[]string) {
	t.Helper()
	if err := m.CreateTable(context.Background(), name, header); err != nil {
		t.Fatalf("CreateTable(%s) failed: %v", name, err)
	}
	if len(rows) == 0 {
		return
	}
	if err := m.AppendRows(context.Background(), name, rows); err != nil {
		t.Fatalf("AppendRows(%s) failed: %v", name, err)
	}
}

func mustRead(t *testing.T, st store.Store, name string) *store.Table {
	t.Helper()
	table, err := st.ReadTable(context.Background(), name)
	if err != nil {
		t.Fatalf("ReadTable(%s) failed: %v", name, err)
	}
	return table
}

func mustSetSetting(t *testing.T, st store.Store, name, value string) {
	t.Helper()
	if err := st.WriteSetting(context.Background(), name, value); err != nil {
		t.Fatalf("WriteSetting(%s) failed: %v", name, err)
	}
}

func cell(t *testing.T, table *store.Table, row int, column string) string {
	t.Helper()
	col := table.ColumnIndex(column)
	if col < 0 {
		t.Fatalf("no column %q in table %s", column, table.Name)
	}
	if row < 2 || row > table.LastRow() {
		t.Fatalf("row %d out of range in table %s", row, table.Name)
	}
	return table.Rows[row-2][col]
}

// findTagRow locates a tag row by its composite Group|ID key.
func findTagRow(t *testing.T, table *store.Table, group, id string) int {
	t.Helper()
	groupCol := table.ColumnIndex("Group")
	idCol := table.ColumnIndex("ID")
	for i, row := range table.Rows {
		if strings.TrimSpace(row[groupCol]) == group && strings.TrimSpace(row[idCol]) == id {
			return table.RowNumber(i)
		}
	}
	t.Fatalf("no row with key %s|%s in table %s", group, id, table.Name)
	return 0
}

// countingStore counts mutating calls so tests can prove the absence of
// writes.
type countingStore struct {
	store.Store
	writeRows   int
	appendCalls int
}

func (c *countingStore) WriteRow(ctx context.Context, table string, row int, cells []string) error {
	c.writeRows++
	return c.Store.WriteRow(ctx, table, row, cells)
}

func (c *countingStore) AppendRows(ctx context.Context, table string, rows [][]string) error {
	c.appendCalls++
	return c.Store.AppendRows(ctx, table, rows)
}
