// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/store"
)

// statusChannels are the report slot prefixes the status endpoint reads.
var statusChannels = []string{"meta", "user", "lookup", "score"}

// ChannelStatus is one channel's last persisted run report. Values are
// the raw slot strings; a channel that never ran has all fields empty.
type ChannelStatus struct {
	// Count is touched rows for sync channels, rewritten tag rows for
	// scoring.
	Count string `json:"count,omitempty"`
	// IDs lists the record IDs the last sync run touched.
	IDs string `json:"ids,omitempty"`
	// Records is the participating record count of the last scoring run.
	Records string `json:"records,omitempty"`
	// Elapsed is the last run's duration in seconds.
	Elapsed string `json:"elapsed_seconds,omitempty"`
	// Cursor is the start time of the last successful run.
	Cursor string `json:"cursor,omitempty"`
}

// StatusResponse is the /api/v1/status payload.
type StatusResponse struct {
	Channels map[string]ChannelStatus `json:"channels"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(store.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			logging.Warn().Err(err).Msg("Readiness probe failed")
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "store unreachable")
			return
		}
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"ready": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	channels := make(map[string]ChannelStatus, len(statusChannels))
	for _, ch := range statusChannels {
		status, err := s.channelStatus(r.Context(), ch)
		if err != nil {
			logging.Error().Err(err).Str("channel", ch).Msg("Status read failed")
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "status read failed")
			return
		}
		channels[ch] = status
	}
	respondJSON(w, r, http.StatusOK, StatusResponse{Channels: channels})
}

func (s *Server) channelStatus(ctx context.Context, channel string) (ChannelStatus, error) {
	var status ChannelStatus
	var err error
	read := func(slot string) (string, error) {
		v, err := s.store.ReadSetting(ctx, "report."+channel+"."+slot)
		if errors.Is(err, store.ErrSettingNotFound) {
			return "", nil
		}
		return v, err
	}

	if status.Count, err = read("count"); err != nil {
		return status, err
	}
	if status.IDs, err = read("ids"); err != nil {
		return status, err
	}
	if status.Records, err = read("records"); err != nil {
		return status, err
	}
	if status.Elapsed, err = read("elapsed"); err != nil {
		return status, err
	}
	if status.Cursor, err = read("cursor"); err != nil {
		return status, err
	}
	return status, nil
}
