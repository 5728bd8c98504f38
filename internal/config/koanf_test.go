// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Store defaults
	if cfg.Store.Backend != "duckdb" {
		t.Errorf("Store.Backend = %q, want duckdb", cfg.Store.Backend)
	}
	if cfg.Store.Path != "/data/tastegraph.duckdb" {
		t.Errorf("Store.Path = %q, want /data/tastegraph.duckdb", cfg.Store.Path)
	}
	if cfg.Store.MaxMemory != "2GB" {
		t.Errorf("Store.MaxMemory = %q, want 2GB", cfg.Store.MaxMemory)
	}
	if cfg.Store.WriteRatePerSec != 0 {
		t.Errorf("Store.WriteRatePerSec = %v, want 0 (disabled)", cfg.Store.WriteRatePerSec)
	}

	// Table defaults
	if cfg.Tables.Merged != "Merged" {
		t.Errorf("Tables.Merged = %q, want Merged", cfg.Tables.Merged)
	}
	if cfg.Tables.LookupIndex != "Lookup Index" {
		t.Errorf("Tables.LookupIndex = %q, want 'Lookup Index'", cfg.Tables.LookupIndex)
	}
	if cfg.Tables.LookupAll != "Lookup All" {
		t.Errorf("Tables.LookupAll = %q, want 'Lookup All'", cfg.Tables.LookupAll)
	}

	// Sync defaults
	if cfg.Sync.Interval != time.Hour {
		t.Errorf("Sync.Interval = %v, want 1h", cfg.Sync.Interval)
	}
	if !cfg.Sync.MetaEnabled || !cfg.Sync.UserEnabled || !cfg.Sync.LookupEnabled {
		t.Error("all sync channels should be enabled by default")
	}
	if len(cfg.Sync.MetaColumns) != 8 {
		t.Errorf("len(Sync.MetaColumns) = %d, want 8", len(cfg.Sync.MetaColumns))
	}
	if len(cfg.Sync.UserColumns) != 5 {
		t.Errorf("len(Sync.UserColumns) = %d, want 5", len(cfg.Sync.UserColumns))
	}
	if cfg.Sync.MetaTimestampColumn != "Meta Updated" {
		t.Errorf("Sync.MetaTimestampColumn = %q, want 'Meta Updated'", cfg.Sync.MetaTimestampColumn)
	}
	if cfg.Sync.UserTimestampColumn != "User Updated" {
		t.Errorf("Sync.UserTimestampColumn = %q, want 'User Updated'", cfg.Sync.UserTimestampColumn)
	}

	// Scoring defaults
	if !cfg.Scoring.Enabled {
		t.Error("Scoring.Enabled should be true by default")
	}
	if cfg.Scoring.Interval != 24*time.Hour {
		t.Errorf("Scoring.Interval = %v, want 24h", cfg.Scoring.Interval)
	}

	// Server defaults
	if cfg.Server.Port != 8484 {
		t.Errorf("Server.Port = %d, want 8484", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}

	// Defaults must pass their own validation.
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Store
		{"STORE_BACKEND", "store.backend"},
		{"DUCKDB_PATH", "store.path"},
		{"DUCKDB_MAX_MEMORY", "store.max_memory"},
		{"STORE_WRITE_RATE", "store.write_rate_per_sec"},

		// Tables
		{"TABLE_MERGED", "tables.merged"},
		{"TABLE_LOOKUP_ALL", "tables.lookup_all"},

		// Sync
		{"SYNC_INTERVAL", "sync.interval"},
		{"SYNC_META_ENABLED", "sync.meta_enabled"},
		{"SYNC_USER_COLUMNS", "sync.user_columns"},
		{"SYNC_META_TS_COLUMN", "sync.meta_timestamp_column"},

		// Scoring
		{"SCORING_ENABLED", "scoring.enabled"},
		{"SCORING_INTERVAL", "scoring.interval"},

		// Server
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"API_ENABLED", "server.enabled"},

		// Logging
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},

		// Unmapped keys are skipped
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	// Run from a directory with no config file so only defaults apply.
	t.Chdir(t.TempDir())

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}
	if cfg.Store.Backend != "duckdb" {
		t.Errorf("Store.Backend = %q, want duckdb", cfg.Store.Backend)
	}
	if cfg.Tables.Meta != "Meta" {
		t.Errorf("Tables.Meta = %q, want Meta", cfg.Tables.Meta)
	}
}

func TestLoadWithKoanfFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := `
store:
  backend: memory
sync:
  interval: 30m
  user_columns:
    - Episodes Watched
    - User Score
server:
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("Sync.Interval = %v, want 30m", cfg.Sync.Interval)
	}
	if len(cfg.Sync.UserColumns) != 2 {
		t.Errorf("len(Sync.UserColumns) = %d, want 2", len(cfg.Sync.UserColumns))
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Tables.LookupAll != "Lookup All" {
		t.Errorf("Tables.LookupAll = %q, want 'Lookup All'", cfg.Tables.LookupAll)
	}
}

func TestLoadWithKoanfEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("HTTP_PORT", "7777")
	t.Setenv("SYNC_USER_COLUMNS", "Episodes Watched, User Score ,User Updated")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777", cfg.Server.Port)
	}
	want := []string{"Episodes Watched", "User Score", "User Updated"}
	if len(cfg.Sync.UserColumns) != len(want) {
		t.Fatalf("len(Sync.UserColumns) = %d, want %d", len(cfg.Sync.UserColumns), len(want))
	}
	for i, col := range want {
		if cfg.Sync.UserColumns[i] != col {
			t.Errorf("Sync.UserColumns[%d] = %q, want %q", i, cfg.Sync.UserColumns[i], col)
		}
	}
}
