// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/store"
)

// Scoring knob slots and their documented defaults. The knobs live in
// store settings rather than process configuration so they can be tuned
// between runs without a redeploy.
const (
	slotSpread        = "score.spread"
	slotHoursExponent = "score.hours_exponent"
	slotMinConfidence = "score.min_confidence"
	slotMaxConfidence = "score.max_confidence"

	defaultSpread        = 1.55
	defaultHoursExponent = 0.55
	defaultMinConfidence = 0.20
	defaultMaxConfidence = 0.98
)

// Params are the scoring knobs for one run, read once before the row pass
// begins and never re-read inside it.
type Params struct {
	// Spread amplifies the distance from the neutral anchor after
	// confidence weighting. Values above 1 exaggerate separation.
	Spread float64
	// HoursExponent shapes the duration effect's saturation curve.
	HoursExponent float64
	// MinConfidence and MaxConfidence clamp the blended confidence.
	MinConfidence float64
	MaxConfidence float64
	// Bounds maps group name to its rec-value output range. Groups
	// without a configured range use [-1, 1].
	Bounds map[string]Bounds
}

// Bounds is one group's rec-value output range.
type Bounds struct {
	Min float64
	Max float64
}

// defaultBounds is the rec-value range for unconfigured groups.
var defaultBounds = Bounds{Min: -1, Max: 1}

// loadParams reads the scoring knobs and the rec bounds of every given
// group. Missing or malformed slots fall back to defaults; only store
// failures abort.
func (e *Engine) loadParams(ctx context.Context, groups []string) (*Params, error) {
	p := &Params{Bounds: make(map[string]Bounds, len(groups))}

	var err error
	if p.Spread, err = e.numberSetting(ctx, slotSpread, defaultSpread); err != nil {
		return nil, err
	}
	if p.HoursExponent, err = e.numberSetting(ctx, slotHoursExponent, defaultHoursExponent); err != nil {
		return nil, err
	}
	if p.MinConfidence, err = e.numberSetting(ctx, slotMinConfidence, defaultMinConfidence); err != nil {
		return nil, err
	}
	if p.MaxConfidence, err = e.numberSetting(ctx, slotMaxConfidence, defaultMaxConfidence); err != nil {
		return nil, err
	}

	for _, g := range groups {
		b := defaultBounds
		if b.Min, err = e.numberSetting(ctx, "rec.min."+g, defaultBounds.Min); err != nil {
			return nil, err
		}
		if b.Max, err = e.numberSetting(ctx, "rec.max."+g, defaultBounds.Max); err != nil {
			return nil, err
		}
		p.Bounds[g] = b
	}
	return p, nil
}

// numberSetting reads one numeric setting. An absent slot returns the
// default silently; a malformed value returns the default with a warning;
// any other store failure is an error.
func (e *Engine) numberSetting(ctx context.Context, slot string, def float64) (float64, error) {
	raw, err := e.store.ReadSetting(ctx, slot)
	if errors.Is(err, store.ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read setting %s: %w", slot, err)
	}

	v, ok := store.ParseNumber(raw)
	if !ok {
		logging.Warn().
			Str("slot", slot).
			Str("value", raw).
			Float64("default", def).
			Msg("Malformed numeric setting, default used")
		return def, nil
	}
	return v, nil
}
