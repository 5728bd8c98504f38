// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance; validator.Validate is
// thread-safe and caches struct metadata.
var validate = validator.New()

// Validate checks that the configuration is complete and consistent.
// Tag-level constraints run through go-playground/validator; the semantic
// rules the tags cannot express follow.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateIntervals(); err != nil {
		return err
	}
	if err := c.validateTables(); err != nil {
		return err
	}
	return c.validateOwnership()
}

// validateIntervals bounds the scheduling durations.
func (c *Config) validateIntervals() error {
	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync.interval must be at least 1m, got %v", c.Sync.Interval)
	}
	if c.Scoring.Interval < time.Minute {
		return fmt.Errorf("scoring.interval must be at least 1m, got %v", c.Scoring.Interval)
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1s, got %v", c.Server.Timeout)
	}
	return nil
}

// validateTables requires the six table names to be pairwise distinct.
// Two engines pointed at the same table would fight over its rows.
func (c *Config) validateTables() error {
	names := map[string]string{}
	for key, name := range map[string]string{
		"tables.meta":         c.Tables.Meta,
		"tables.user":         c.Tables.User,
		"tables.merged":       c.Tables.Merged,
		"tables.lookup":       c.Tables.Lookup,
		"tables.lookup_index": c.Tables.LookupIndex,
		"tables.lookup_all":   c.Tables.LookupAll,
	} {
		if prev, dup := names[name]; dup {
			return fmt.Errorf("%s and %s both name table %q", prev, key, name)
		}
		names[name] = key
	}
	return nil
}

// validateOwnership enforces the column ownership partition: a destination
// column may be owned by at most one sync channel.
func (c *Config) validateOwnership() error {
	owned := make(map[string]bool, len(c.Sync.MetaColumns))
	for _, col := range c.Sync.MetaColumns {
		if col == "" {
			return fmt.Errorf("sync.meta_columns contains an empty column name")
		}
		if owned[col] {
			return fmt.Errorf("sync.meta_columns lists %q twice", col)
		}
		owned[col] = true
	}
	userOwned := make(map[string]bool, len(c.Sync.UserColumns))
	for _, col := range c.Sync.UserColumns {
		if col == "" {
			return fmt.Errorf("sync.user_columns contains an empty column name")
		}
		if owned[col] {
			return fmt.Errorf("column %q is owned by both sync channels", col)
		}
		if userOwned[col] {
			return fmt.Errorf("sync.user_columns lists %q twice", col)
		}
		userOwned[col] = true
	}
	return nil
}
