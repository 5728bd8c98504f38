// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/store"
)

// cursorSlot names the settings slot holding a channel's sync cursor.
func cursorSlot(channel string) string {
	return "sync.cursor." + channel
}

// loadCursor reads a channel's cursor. A missing or unparsable slot means
// no cursor: the run processes everything, as on a first run. Reruns are
// idempotent, so erring toward reprocessing is safe.
func loadCursor(ctx context.Context, st store.Store, slot string) (time.Time, bool, error) {
	value, err := st.ReadSetting(ctx, slot)
	if errors.Is(err, store.ErrSettingNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cursor %s: %w", slot, err)
	}

	ts, ok := store.ParseTimestamp(value)
	if !ok {
		logging.Warn().Str("slot", slot).Str("value", value).Msg("Unparsable sync cursor, treating run as first run")
		return time.Time{}, false, nil
	}
	return ts, true, nil
}

// saveCursor advances a channel's cursor. Called only after a run completed
// without fatal error, with the run's start time so no window is lost to
// work performed during the pass.
func saveCursor(ctx context.Context, st store.Store, slot string, t time.Time) error {
	if err := st.WriteSetting(ctx, slot, store.FormatTimestamp(t)); err != nil {
		return fmt.Errorf("failed to advance cursor %s: %w", slot, err)
	}
	return nil
}
