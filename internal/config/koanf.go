// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tastegraph/config.yaml",
	"/etc/tastegraph/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default value. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:                "duckdb",
			Path:                   "/data/tastegraph.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
			WriteRatePerSec:        0, // 0 = no throttle
			WriteBurst:             1,
		},
		Tables: TablesConfig{
			Meta:        "Meta",
			User:        "User",
			Merged:      "Merged",
			Lookup:      "Lookup",
			LookupIndex: "Lookup Index",
			LookupAll:   "Lookup All",
		},
		Sync: SyncConfig{
			Interval:      1 * time.Hour,
			MetaEnabled:   true,
			UserEnabled:   true,
			LookupEnabled: true,
			MetaColumns: []string{
				"Title",
				"Type",
				"Season",
				"Episode Count",
				"Genre ID",
				"Studio ID",
				"Franchise ID",
				"Meta Updated",
			},
			UserColumns: []string{
				"Episodes Watched",
				"User Watchtime",
				"User Score",
				"User Status",
				"User Updated",
			},
			MetaTimestampColumn: "Meta Updated",
			UserTimestampColumn: "User Updated",
		},
		Scoring: ScoringConfig{
			Enabled:  true,
			Interval: 24 * time.Hour,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8484,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence: ENV > file > defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional).
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority).
	// Names map through envTransformFunc: DUCKDB_PATH -> store.path,
	// SYNC_INTERVAL -> sync.interval, and so on.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path of the first file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"sync.meta_columns",
	"sync.user_columns",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults).
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so unrelated environment
// noise never pollutes the config.
//
// Examples:
//   - DUCKDB_PATH -> store.path
//   - SYNC_INTERVAL -> sync.interval
//   - TABLE_LOOKUP_ALL -> tables.lookup_all
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Store mappings
		"store_backend":         "store.backend",
		"duckdb_path":           "store.path",
		"duckdb_max_memory":     "store.max_memory",
		"duckdb_threads":        "store.threads",
		"store_write_rate":      "store.write_rate_per_sec",
		"store_write_burst":     "store.write_burst",
		"duckdb_preserve_order": "store.preserve_insertion_order",

		// Table name mappings
		"table_meta":         "tables.meta",
		"table_user":         "tables.user",
		"table_merged":       "tables.merged",
		"table_lookup":       "tables.lookup",
		"table_lookup_index": "tables.lookup_index",
		"table_lookup_all":   "tables.lookup_all",

		// Sync mappings
		"sync_interval":       "sync.interval",
		"sync_meta_enabled":   "sync.meta_enabled",
		"sync_user_enabled":   "sync.user_enabled",
		"sync_lookup_enabled": "sync.lookup_enabled",
		"sync_meta_columns":   "sync.meta_columns",
		"sync_user_columns":   "sync.user_columns",
		"sync_meta_ts_column": "sync.meta_timestamp_column",
		"sync_user_ts_column": "sync.user_timestamp_column",

		// Scoring mappings
		"scoring_enabled":  "scoring.enabled",
		"scoring_interval": "scoring.interval",

		// Server mappings
		"api_enabled":  "server.enabled",
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Skip unmapped keys.
	return ""
}
