// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package store

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTableColumnIndex(t *testing.T) {
	table := &Table{
		Name:   "Merged",
		Header: []string{"Anime ID", "Title", "Genre ID", "Episodes Watched"},
	}

	tests := []struct {
		name   string
		column string
		want   int
	}{
		{"first column", "Anime ID", 0},
		{"middle column", "Genre ID", 2},
		{"last column", "Episodes Watched", 3},
		{"missing column", "Studio ID", -1},
		{"case sensitive", "anime id", -1},
		{"no trimming", " Title", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.ColumnIndex(tt.column); got != tt.want {
				t.Errorf("ColumnIndex(%q) = %d, want %d", tt.column, got, tt.want)
			}
		})
	}
}

func TestTableRequireColumn(t *testing.T) {
	table := &Table{
		Name:   "Merged",
		Header: []string{"Anime ID", "Title"},
	}

	if got, err := table.RequireColumn("Title"); err != nil || got != 1 {
		t.Errorf("RequireColumn(Title) = (%d, %v), want (1, nil)", got, err)
	}

	_, err := table.RequireColumn("Studio ID")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("error = %v, want ErrColumnNotFound in chain", err)
	}
	if !strings.Contains(err.Error(), `"Studio ID"`) || !strings.Contains(err.Error(), "Merged") {
		t.Errorf("error = %q, want the column and table named", err)
	}
}

func TestTableRowNumbering(t *testing.T) {
	table := &Table{
		Name:   "User",
		Header: []string{"Anime ID", "Episodes Watched"},
		Rows: [][]string{
			{"101", "12"},
			{"102", ""},
			{"103", "4"},
		},
	}

	if got := table.LastRow(); got != 4 {
		t.Errorf("LastRow() = %d, want 4", got)
	}
	if got := table.RowNumber(0); got != 2 {
		t.Errorf("RowNumber(0) = %d, want 2", got)
	}
	if got := table.RowNumber(2); got != 4 {
		t.Errorf("RowNumber(2) = %d, want 4", got)
	}

	empty := &Table{Name: "Empty", Header: []string{"Anime ID"}}
	if got := empty.LastRow(); got != 1 {
		t.Errorf("LastRow() of empty table = %d, want 1 (header only)", got)
	}
}

func TestTableCell(t *testing.T) {
	table := &Table{
		Name:   "Meta",
		Header: []string{"Anime ID", "Title"},
		Rows: [][]string{
			{"101", "Cowboy Bebop"},
		},
	}

	tests := []struct {
		name string
		row  int
		col  int
		want string
	}{
		{"header cell", 1, 1, "Title"},
		{"data cell", 2, 0, "101"},
		{"row out of range", 5, 0, ""},
		{"column out of range", 2, 9, ""},
		{"negative column", 2, -1, ""},
		{"row zero", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Cell(tt.row, tt.col); got != tt.want {
				t.Errorf("Cell(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestTableWidth(t *testing.T) {
	table := &Table{Header: []string{"A", "B", "C"}}
	if got := table.Width(); got != 3 {
		t.Errorf("Width() = %d, want 3", got)
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want bool
	}{
		{"empty", "", true},
		{"spaces", "   ", true},
		{"tab", "\t", true},
		{"zero is not blank", "0", false},
		{"text", "12", false},
		{"padded text", " 12 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.cell); got != tt.want {
				t.Errorf("IsBlank(%q) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		cell   string
		want   float64
		wantOK bool
	}{
		{"integer", "80", 80, true},
		{"decimal", "7.5", 7.5, true},
		{"padded", " 1440 ", 1440, true},
		{"negative", "-3", -3, true},
		{"blank", "", 0, false},
		{"spaces", "  ", 0, false},
		{"garbage", "N/A", 0, false},
		{"trailing text", "80 pts", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		cell   string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "rfc3339",
			cell:   "2026-03-01T10:30:00Z",
			want:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "datetime without zone",
			cell:   "2026-03-01 10:30:00",
			want:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "date only",
			cell:   "2026-03-01",
			want:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "blank", cell: "", wantOK: false},
		{name: "spaces", cell: "   ", wantOK: false},
		{name: "garbage", cell: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.cell, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, est)

	got := FormatTimestamp(ts)
	want := "2026-03-01T15:30:00Z"
	if got != want {
		t.Errorf("FormatTimestamp() = %q, want %q (UTC normalized)", got, want)
	}

	parsed, ok := ParseTimestamp(got)
	if !ok {
		t.Fatalf("FormatTimestamp() produced unparseable value %q", got)
	}
	if !parsed.Equal(ts) {
		t.Errorf("round trip = %v, want %v", parsed, ts)
	}
}

func TestSplitTokens(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []string
	}{
		{"single", "Action", []string{"Action"}},
		{"multiple", "Action,Drama,Sci-Fi", []string{"Action", "Drama", "Sci-Fi"}},
		{"padded tokens", " Action , Drama ", []string{"Action", "Drama"}},
		{"blank tokens dropped", "Action,,Drama,", []string{"Action", "Drama"}},
		{"duplicates preserved", "Action,Action", []string{"Action", "Action"}},
		{"blank cell", "", nil},
		{"only separators", ", ,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitTokens(tt.cell)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitTokens(%q) = %v, want %v", tt.cell, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitTokens(%q)[%d] = %q, want %q", tt.cell, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"integer valued", 24, "24"},
		{"two decimals", 24.5, "24.5"},
		{"four decimals", 61.8042, "61.8042"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.in); got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPadRow(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		width int
		want  int
	}{
		{"shorter than width", []string{"a"}, 3, 3},
		{"equal width", []string{"a", "b"}, 2, 2},
		{"wider kept", []string{"a", "b", "c"}, 2, 3},
		{"nil input", nil, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padRow(tt.cells, tt.width)
			if len(got) != tt.want {
				t.Fatalf("padRow() length = %d, want %d", len(got), tt.want)
			}
			for i, cell := range tt.cells {
				if i < len(got) && got[i] != cell {
					t.Errorf("padRow()[%d] = %q, want %q", i, got[i], cell)
				}
			}
		})
	}
}
