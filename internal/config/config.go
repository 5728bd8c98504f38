// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package config provides layered process configuration for Tastegraph.
//
// Configuration is loaded with koanf v2 from three sources in increasing
// precedence: built-in defaults, an optional YAML file, and environment
// variables. The loaded Config is validated once at startup; engines read
// it but never mutate it.
//
// Scoring parameters (spread, hours exponent, confidence bounds, per-group
// rec bounds) are deliberately NOT here: they are runtime-tunable values
// read from the tabular store's settings slots on every scoring run.
package config

import "time"

// Config is the root configuration for the Tastegraph process.
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Tables  TablesConfig  `koanf:"tables"`
	Sync    SyncConfig    `koanf:"sync"`
	Scoring ScoringConfig `koanf:"scoring"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// StoreConfig selects and tunes the tabular store backend.
type StoreConfig struct {
	// Backend selects the store implementation: "duckdb" or "memory".
	// Default: duckdb
	Backend string `koanf:"backend" validate:"oneof=duckdb memory"`

	// Path is the DuckDB database file path. The parent directory is
	// created if missing. Default: /data/tastegraph.duckdb
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage. Default: 2GB
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count (0 = runtime.NumCPU()).
	Threads int `koanf:"threads" validate:"min=0"`

	// PreserveInsertionOrder keeps DuckDB's default result ordering.
	// Default: true
	PreserveInsertionOrder bool `koanf:"preserve_insertion_order"`

	// WriteRatePerSec throttles mutating store calls, for deployments
	// whose store proxies a quota-limited remote backend (0 = off).
	WriteRatePerSec float64 `koanf:"write_rate_per_sec" validate:"min=0"`

	// WriteBurst is the throttle burst size. Default: 1
	WriteBurst int `koanf:"write_burst" validate:"min=0"`
}

// TablesConfig names the tables the engines operate on.
type TablesConfig struct {
	// Meta is the authoritative metadata source table. Default: Meta
	Meta string `koanf:"meta" validate:"required"`

	// User is the user tracking source table. Default: User
	User string `koanf:"user" validate:"required"`

	// Merged is the shared destination record table. Default: Merged
	Merged string `koanf:"merged" validate:"required"`

	// Lookup is the grouped tag source table. Default: Lookup
	Lookup string `koanf:"lookup" validate:"required"`

	// LookupIndex holds per-group range metadata. Default: Lookup Index
	LookupIndex string `koanf:"lookup_index" validate:"required"`

	// LookupAll is the flat tag destination table. Default: Lookup All
	LookupAll string `koanf:"lookup_all" validate:"required"`
}

// SyncConfig controls the record sync channels.
type SyncConfig struct {
	// Interval is how often scheduled sync runs fire. Default: 1h
	Interval time.Duration `koanf:"interval"`

	// MetaEnabled schedules the metadata channel. Default: true
	MetaEnabled bool `koanf:"meta_enabled"`

	// UserEnabled schedules the user channel. Default: true
	UserEnabled bool `koanf:"user_enabled"`

	// LookupEnabled schedules the grouped lookup channel. Default: true
	LookupEnabled bool `koanf:"lookup_enabled"`

	// MetaColumns is the metadata channel's owned-column whitelist.
	// Entries missing from source or destination are skipped per run.
	MetaColumns []string `koanf:"meta_columns" validate:"min=1"`

	// UserColumns is the user channel's owned-column whitelist.
	UserColumns []string `koanf:"user_columns" validate:"min=1"`

	// MetaTimestampColumn gates metadata rows against the channel cursor.
	// Default: Meta Updated
	MetaTimestampColumn string `koanf:"meta_timestamp_column" validate:"required"`

	// UserTimestampColumn gates user rows against the channel cursor.
	// Default: User Updated
	UserTimestampColumn string `koanf:"user_timestamp_column" validate:"required"`
}

// ScoringConfig controls the aggregation and scoring pipeline.
type ScoringConfig struct {
	// Enabled schedules the pipeline. Default: true
	Enabled bool `koanf:"enabled"`

	// Interval is how often the pipeline runs. Default: 24h
	Interval time.Duration `koanf:"interval"`
}

// ServerConfig holds the observability HTTP server settings.
type ServerConfig struct {
	// Enabled starts the HTTP server. Default: true
	Enabled bool `koanf:"enabled"`

	// Port is the listen port. Default: 8484
	Port int `koanf:"port" validate:"min=1,max=65535"`

	// Host is the listen address. Default: 0.0.0.0
	Host string `koanf:"host" validate:"required"`

	// Timeout bounds request handling. Default: 30s
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level. Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`

	// Format is json or console. Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes file:line in log output. Default: false
	Caller bool `koanf:"caller"`
}

// Load reads configuration from built-in defaults, an optional YAML file
// (config.yaml, or the path in CONFIG_PATH), and environment variables,
// in that precedence order. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
