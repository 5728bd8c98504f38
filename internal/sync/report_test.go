// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/tastegraph/internal/schema"
	"github.com/tomtom215/tastegraph/internal/store"
)

// reportRejectingStore fails setting writes to report slots while letting
// cursor writes through.
type reportRejectingStore struct {
	store.Store
}

func (s *reportRejectingStore) WriteSetting(ctx context.Context, name, value string) error {
	if strings.HasPrefix(name, "report.") {
		return errors.New("settings quota exhausted")
	}
	return s.Store.WriteSetting(ctx, name, value)
}

func TestRunSurvivesReportPersistFailure(t *testing.T) {
	rejecting := &reportRejectingStore{Store: store.NewMemory()}
	m := rejecting.Store.(*store.Memory)
	e := NewEngine(rejecting, schema.Default())
	ctx := context.Background()

	mustTable(t, m, "Meta", metaHeader,
		[]string{"101", "Cowboy Bebop", "TV", "1", "2026-03-01T00:00:00Z"},
	)
	mustTable(t, m, "Merged", mergedHeader)

	// Report persistence is best-effort: the run already mutated the
	// destination and advanced the cursor, so a failing slot write must
	// not turn it into a failed run.
	rep, err := e.Run(ctx, metaTestChannel())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Appended != 1 {
		t.Errorf("appended = %d, want 1", rep.Appended)
	}

	if _, err := m.ReadSetting(ctx, cursorSlot(ChannelMeta)); err != nil {
		t.Errorf("cursor slot missing: %v", err)
	}
	if _, err := m.ReadSetting(ctx, reportSlot(ChannelMeta, "count")); !errors.Is(err, store.ErrSettingNotFound) {
		t.Errorf("report slot unexpectedly written: %v", err)
	}
}
