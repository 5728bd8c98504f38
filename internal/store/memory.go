// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a mutex-guarded in-memory store backend. It backs tests and
// ephemeral runs; nothing survives process exit.
type Memory struct {
	mu       sync.RWMutex
	tables   map[string]*memTable
	settings map[string]string
}

type memTable struct {
	header []string
	rows   [][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tables:   make(map[string]*memTable),
		settings: make(map[string]string),
	}
}

var (
	_ Store  = (*Memory)(nil)
	_ Admin  = (*Memory)(nil)
	_ Pinger = (*Memory)(nil)
)

// CreateTable creates (or replaces) a table with the given header.
func (m *Memory) CreateTable(_ context.Context, table string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := make([]string, len(header))
	copy(h, header)
	m.tables[table] = &memTable{header: h}
	return nil
}

// ReadTable returns a deep copy of the named table.
func (m *Memory) ReadTable(_ context.Context, table string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mt, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	t := &Table{
		Name:   table,
		Header: append([]string(nil), mt.header...),
		Rows:   make([][]string, len(mt.rows)),
	}
	for i, row := range mt.rows {
		t.Rows[i] = append([]string(nil), padRow(row, len(mt.header))...)
	}
	return t, nil
}

// ReadRow returns a copy of one row; row 1 is the header.
func (m *Memory) ReadRow(_ context.Context, table string, row int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mt, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if row < 1 || row > 1+len(mt.rows) {
		return nil, fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, table, row)
	}
	if row == 1 {
		return append([]string(nil), mt.header...), nil
	}
	return append([]string(nil), padRow(mt.rows[row-2], len(mt.header))...), nil
}

// WriteRow replaces one existing row; row 1 replaces the header.
func (m *Memory) WriteRow(_ context.Context, table string, row int, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if row < 1 || row > 1+len(mt.rows) {
		return fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, table, row)
	}

	stored := append([]string(nil), cells...)
	if row == 1 {
		mt.header = stored
		return nil
	}
	mt.rows[row-2] = stored
	return nil
}

// AppendRows adds rows after the last occupied row.
func (m *Memory) AppendRows(_ context.Context, table string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	for _, row := range rows {
		mt.rows = append(mt.rows, append([]string(nil), row...))
	}
	return nil
}

// ReadSetting returns the named setting value.
func (m *Memory) ReadSetting(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.settings[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, name)
	}
	return v, nil
}

// WriteSetting stores the named setting value.
func (m *Memory) WriteSetting(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[name] = value
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op; it exists so callers can treat backends uniformly.
func (m *Memory) Close() error {
	return nil
}
