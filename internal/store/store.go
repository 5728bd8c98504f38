// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package store defines the tabular store contract the sync and analytics
// engines run against, and ships two backends: an embedded DuckDB store for
// real deployments and an in-memory store for tests and ephemeral runs.
//
// The model is a spreadsheet: named tables of string cells with 1-based
// rows, where row 1 is the header and data rows start at row 2. Engines
// consume exactly six operations (read table, read row, write row, append
// rows, read setting, write setting); everything else a backend offers is
// lifecycle plumbing outside the engine contract.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors returned by store backends and table helpers.
var (
	// ErrTableNotFound is returned when the named table does not exist.
	ErrTableNotFound = errors.New("store: table not found")

	// ErrRowOutOfRange is returned when a row number is below 1 or past
	// the last occupied row of the table.
	ErrRowOutOfRange = errors.New("store: row out of range")

	// ErrSettingNotFound is returned when the named setting has no value.
	// Callers treat this as "use the default" rather than a failure.
	ErrSettingNotFound = errors.New("store: setting not found")

	// ErrColumnNotFound is returned by RequireColumn. Engines treat it as
	// a precondition violation: abort before the first write.
	ErrColumnNotFound = errors.New("store: missing required column")
)

// Store is the narrow surface the engines consume. Implementations must be
// safe for concurrent use.
//
// Rows are 1-based and row 1 is the header. A row write replaces the whole
// row; the row is the atomicity unit.
type Store interface {
	// ReadTable returns the named table: header plus all data rows, each
	// padded to header width.
	ReadTable(ctx context.Context, table string) (*Table, error)

	// ReadRow returns one row by its 1-based number, padded to header
	// width. Row 1 returns the header.
	ReadRow(ctx context.Context, table string, row int) ([]string, error)

	// WriteRow replaces one existing row by its 1-based number. Writing
	// past the last occupied row fails with ErrRowOutOfRange; new rows go
	// through AppendRows.
	WriteRow(ctx context.Context, table string, row int, cells []string) error

	// AppendRows adds rows after the last occupied row of the table.
	AppendRows(ctx context.Context, table string, rows [][]string) error

	// ReadSetting returns the named setting value, or ErrSettingNotFound.
	ReadSetting(ctx context.Context, name string) (string, error)

	// WriteSetting stores the named setting value, creating or replacing it.
	WriteSetting(ctx context.Context, name, value string) error
}

// Admin is the optional management surface backends expose for seeding and
// tests. It is deliberately not part of Store: engines never create tables.
type Admin interface {
	// CreateTable creates (or replaces) a table with the given header and
	// no data rows.
	CreateTable(ctx context.Context, table string, header []string) error
}

// Pinger is implemented by backends with a liveness check, used by the
// readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Table is an in-memory snapshot of one table.
type Table struct {
	// Name is the table name as stored.
	Name string

	// Header is row 1.
	Header []string

	// Rows holds the data rows in sheet order. Rows[i] is sheet row i+2
	// and is padded to len(Header).
	Rows [][]string
}

// ColumnIndex returns the 0-based index of the named header column, or -1
// if the column is absent. Matching is exact.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// RequireColumn resolves a column the caller cannot run without, naming
// the missing column and table in the error.
func (t *Table) RequireColumn(name string) (int, error) {
	if i := t.ColumnIndex(name); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w %q in table %s", ErrColumnNotFound, name, t.Name)
}

// Width returns the header width.
func (t *Table) Width() int {
	return len(t.Header)
}

// LastRow returns the 1-based number of the last occupied row. A table with
// no data rows returns 1 (the header).
func (t *Table) LastRow() int {
	return 1 + len(t.Rows)
}

// RowNumber converts a data row index (0-based into Rows) to its 1-based
// sheet row number.
func (t *Table) RowNumber(i int) int {
	return i + 2
}

// Cell returns the cell at the given data row index and column index, or ""
// when either index is out of range. It exists so row-local malformed data
// degrades to blank instead of panicking.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	cells := t.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}

// padRow returns cells padded with blanks to at least width. The input
// slice is returned unchanged when already wide enough.
func padRow(cells []string, width int) []string {
	if len(cells) >= width {
		return cells
	}
	padded := make([]string, width)
	copy(padded, cells)
	return padded
}
