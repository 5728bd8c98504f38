// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package sync

import (
	"context"
	"reflect"
	"testing"

	"github.com/tomtom215/tastegraph/internal/schema"
	"github.com/tomtom215/tastegraph/internal/store"
)

// mergedHeader is the destination fixture schema: meta-owned, user-owned
// and foreign columns side by side.
var mergedHeader = []string{
	"Anime ID", "Title", "Type", "Genre ID",
	"Episodes Watched", "User Watchtime", "User Score", "User Updated",
	"Meta Updated", "Notes",
}

var metaHeader = []string{"Anime ID", "Title", "Type", "Genre ID", "Meta Updated"}

var userHeader = []string{"Anime ID", "Episodes Watched", "User Watchtime", "User Score", "User Updated"}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	return NewEngine(m, schema.Default()), m
}

func mustTable(t *testing.T, m *store.Memory, name string, header []string, rows ...[]string) {
	t.Helper()
	ctx := context.Background()
	if err := m.CreateTable(ctx, name, header); err != nil {
		t.Fatalf("CreateTable(%s) failed: %v", name, err)
	}
	if len(rows) > 0 {
		if err := m.AppendRows(ctx, name, rows); err != nil {
			t.Fatalf("AppendRows(%s) failed: %v", name, err)
		}
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

func mustSetCursor(t *testing.T, st store.Store, slot, value string) {
	t.Helper()
	if err := st.WriteSetting(context.Background(), slot, value); err != nil {
		t.Fatalf("WriteSetting(%s) failed: %v", slot, err)
	}
}

// cell fetches one cell by column name, failing the test on an unknown
// column.
func cell(t *testing.T, table *store.Table, row int, column string) string {
	t.Helper()
	idx := table.ColumnIndex(column)
	if idx < 0 {
		t.Fatalf("column %q not in table %s", column, table.Name)
	}
	return table.Cell(row, idx)
}

// rowByID finds the row number of the first row whose column equals id.
func rowByID(t *testing.T, table *store.Table, column, id string) int {
	t.Helper()
	idx := table.ColumnIndex(column)
	if idx < 0 {
		t.Fatalf("column %q not in table %s", column, table.Name)
	}
	for i, row := range table.Rows {
		if row[idx] == id {
			return table.RowNumber(i)
		}
	}
	t.Fatalf("no row with %s=%q in table %s", column, id, table.Name)
	return 0
}

func tablesEqual(a, b *store.Table) bool {
	return reflect.DeepEqual(a.Header, b.Header) && reflect.DeepEqual(a.Rows, b.Rows)
}

func metaTestChannel() Channel {
	return Channel{
		Name:            ChannelMeta,
		Source:          "Meta",
		Destination:     "Merged",
		TimestampColumn: "Meta Updated",
		CursorSlot:      cursorSlot(ChannelMeta),
		Owned:           []string{"Title", "Type", "Genre ID", "Meta Updated"},
	}
}

func userTestChannel() Channel {
	return Channel{
		Name:            ChannelUser,
		Source:          "User",
		Destination:     "Merged",
		TimestampColumn: "User Updated",
		CursorSlot:      cursorSlot(ChannelUser),
		Owned:           []string{"Episodes Watched", "User Watchtime", "User Score", "User Updated"},
		RequireChange:   true,
	}
}

// countingStore counts mutating calls so tests can assert write batching
// and prove the absence of writes.
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
