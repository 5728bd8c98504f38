// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
)

// DuckDB is the embedded persistent store backend. Tables live in three
// relations: sheets (name, header), sheet_rows (sheet, row_num, cells) and
// settings (name, value). Headers and cell rows are JSON-encoded string
// arrays; row_num is the 1-based sheet row, so data rows start at 2.
type DuckDB struct {
	conn *sql.DB
	cfg  *config.StoreConfig
}

var (
	_ Store  = (*DuckDB)(nil)
	_ Admin  = (*DuckDB)(nil)
	_ Pinger = (*DuckDB)(nil)
)

// NewDuckDB opens (creating if needed) the DuckDB store at cfg.Path and
// initializes the schema.
func NewDuckDB(cfg *config.StoreConfig) (*DuckDB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists. 0750 per gosec G301.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load of extensions to prevent hangs in
	// restricted network environments; the schema needs none.
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	db := &DuckDB{conn: conn, cfg: cfg}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("DuckDB store opened")
	return db, nil
}

// configureConnectionPool applies database/sql pool settings.
func (db *DuckDB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize creates the three relations and flushes the WAL so a crash
// before the first checkpoint cannot lose the schema.
func (db *DuckDB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS sheets (
			name TEXT PRIMARY KEY,
			header TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			sheet TEXT NOT NULL,
			row_num INTEGER NOT NULL,
			cells TEXT NOT NULL,
			PRIMARY KEY (sheet, row_num)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}
	return nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DuckDB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint store before close")
	}
	cancel()

	return db.conn.Close()
}

// Ping checks that the store connection is alive.
func (db *DuckDB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return errors.New("store connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint forces a WAL checkpoint.
func (db *DuckDB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// CreateTable creates (or replaces) a table with the given header and no
// data rows.
func (db *DuckDB) CreateTable(ctx context.Context, table string, header []string) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sheets (name, header) VALUES (?, ?)`,
		table, string(headerJSON)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_rows WHERE sheet = ?`, table); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", table, err)
	}
	return tx.Commit()
}

// ReadTable returns the named table: header plus all data rows in sheet
// order, padded to header width.
func (db *DuckDB) ReadTable(ctx context.Context, table string) (t *Table, err error) {
	defer observe("read_table", table, time.Now(), &err)

	header, err := db.readHeader(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT row_num, cells FROM sheet_rows WHERE sheet = ? ORDER BY row_num`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer closeQuietly(rows)

	t = &Table{Name: table, Header: header}
	for rows.Next() {
		var rowNum int
		var cellsJSON string
		if err := rows.Scan(&rowNum, &cellsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		cells, err := decodeCells(cellsJSON)
		if err != nil {
			return nil, fmt.Errorf("corrupt row %d of %s: %w", rowNum, table, err)
		}
		// Fill any gap so Rows[i] is always sheet row i+2.
		for t.RowNumber(len(t.Rows)) < rowNum {
			t.Rows = append(t.Rows, make([]string, len(header)))
		}
		t.Rows = append(t.Rows, padRow(cells, len(header)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return t, nil
}

// ReadRow returns one row by its 1-based number; row 1 is the header.
func (db *DuckDB) ReadRow(ctx context.Context, table string, row int) (cells []string, err error) {
	defer observe("read_row", table, time.Now(), &err)

	header, err := db.readHeader(ctx, table)
	if err != nil {
		return nil, err
	}
	if row == 1 {
		return header, nil
	}
	if row < 1 {
		return nil, fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, table, row)
	}

	var cellsJSON string
	err = db.conn.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? AND row_num = ?`,
		table, row).Scan(&cellsJSON)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		last, lerr := db.lastRow(ctx, table)
		if lerr != nil {
			return nil, lerr
		}
		if row > last {
			return nil, fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, table, row)
		}
		// Gap row: blank.
		return make([]string, len(header)), nil
	case err != nil:
		return nil, fmt.Errorf("failed to read row %d of %s: %w", row, table, err)
	}

	cells, err = decodeCells(cellsJSON)
	if err != nil {
		return nil, fmt.Errorf("corrupt row %d of %s: %w", row, table, err)
	}
	return padRow(cells, len(header)), nil
}

// WriteRow replaces one existing row; row 1 replaces the header.
func (db *DuckDB) WriteRow(ctx context.Context, table string, row int, cells []string) (err error) {
	defer observe("write_row", table, time.Now(), &err)

	if _, err := db.readHeader(ctx, table); err != nil {
		return err
	}
	if row < 1 {
		return fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, table, row)
	}

	cellsJSON, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	if row == 1 {
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE sheets SET header = ? WHERE name = ?`,
			string(cellsJSON), table); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", table, err)
		}
		return nil
	}

	last, err := db.lastRow(ctx, table)
	if err != nil {
		return err
	}
	if row > last {
		return fmt.Errorf("%w: %s row %d (last occupied row is %d)", ErrRowOutOfRange, table, row, last)
	}

	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO sheet_rows (sheet, row_num, cells) VALUES (?, ?, ?)`,
		table, row, string(cellsJSON)); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, table, err)
	}
	metrics.StoreRowsWritten.WithLabelValues(table).Inc()
	return nil
}

// AppendRows adds rows after the last occupied row in one transaction.
func (db *DuckDB) AppendRows(ctx context.Context, table string, rows [][]string) (err error) {
	defer observe("append_rows", table, time.Now(), &err)

	if len(rows) == 0 {
		return nil
	}
	if _, err := db.readHeader(ctx, table); err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	// Serialize the append by computing the base row inside the
	// transaction.
	var base sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(row_num) FROM sheet_rows WHERE sheet = ?`, table).Scan(&base); err != nil {
		return fmt.Errorf("failed to find last row of %s: %w", table, err)
	}
	next := int64(2)
	if base.Valid {
		next = base.Int64 + 1
	}

	for i, row := range rows {
		cellsJSON, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode appended row: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, row_num, cells) VALUES (?, ?, ?)`,
			table, next+int64(i), string(cellsJSON)); err != nil {
			return fmt.Errorf("failed to append row to %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append to %s: %w", table, err)
	}
	metrics.StoreRowsWritten.WithLabelValues(table).Add(float64(len(rows)))
	return nil
}

// ReadSetting returns the named setting value.
func (db *DuckDB) ReadSetting(ctx context.Context, name string) (value string, err error) {
	defer observe("read_setting", "settings", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	return value, nil
}

// WriteSetting stores the named setting value.
func (db *DuckDB) WriteSetting(ctx context.Context, name, value string) (err error) {
	defer observe("write_setting", "settings", time.Now(), &err)

	if _, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (name, value) VALUES (?, ?)`,
		name, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", name, err)
	}
	return nil
}

// readHeader fetches and decodes the header of a table, doubling as the
// existence check every operation performs first.
func (db *DuckDB) readHeader(ctx context.Context, table string) ([]string, error) {
	var headerJSON string
	err := db.conn.QueryRowContext(ctx,
		`SELECT header FROM sheets WHERE name = ?`, table).Scan(&headerJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", table, err)
	}
	header, err := decodeCells(headerJSON)
	if err != nil {
		return nil, fmt.Errorf("corrupt header of %s: %w", table, err)
	}
	return header, nil
}

// lastRow returns the 1-based number of the last occupied row (1 when the
// table has no data rows).
func (db *DuckDB) lastRow(ctx context.Context, table string) (int, error) {
	var max sql.NullInt64
	if err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(row_num) FROM sheet_rows WHERE sheet = ?`, table).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to find last row of %s: %w", table, err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64), nil
}

// decodeCells decodes a JSON-encoded cell array.
func decodeCells(cellsJSON string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// observe records a store operation metric from a deferred call site.
func observe(operation, table string, start time.Time, err *error) {
	metrics.RecordStoreOp(operation, table, time.Since(start), *err)
}
