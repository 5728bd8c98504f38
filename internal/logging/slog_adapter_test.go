// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewSlogHandler(t *testing.T) {
	handler := NewSlogHandler()

	if handler == nil {
		t.Fatal("NewSlogHandler() = nil, want non-nil")
	}
	if handler.attrs != nil {
		t.Errorf("NewSlogHandler().attrs = %v, want nil", handler.attrs)
	}
	if handler.groups != nil {
		t.Errorf("NewSlogHandler().groups = %v, want nil", handler.groups)
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := slog.New(NewSlogHandler())

	tests := []struct {
		name      string
		logFunc   func()
		wantLevel string
	}{
		{"debug", func() { slogger.Debug("debug message") }, `"level":"debug"`},
		{"info", func() { slogger.Info("info message") }, `"level":"info"`},
		{"warn", func() { slogger.Warn("warn message") }, `"level":"warn"`},
		{"error", func() { slogger.Error("error message") }, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()
			output := buf.String()
			if !strings.Contains(output, tt.wantLevel) {
				t.Errorf("expected %s in output: %s", tt.wantLevel, output)
			}
			if !strings.Contains(output, tt.name+" message") {
				t.Errorf("expected message in output: %s", output)
			}
		})
	}
}

func TestSlogHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := slog.New(NewSlogHandler())
	slogger.Info("typed attrs",
		slog.String("str", "s"),
		slog.Int("int", 42),
		slog.Bool("bool", true),
		slog.Float64("float", 1.5),
	)

	output := buf.String()
	for _, want := range []string{`"str":"s"`, `"int":42`, `"bool":true`, `"float":1.5`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := slog.New(NewSlogHandler()).With("service", "supervisor")
	slogger.Info("with attrs")

	output := buf.String()
	if !strings.Contains(output, `"service":"supervisor"`) {
		t.Errorf("expected pre-configured attr in output: %s", output)
	}
}

func TestSlogHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := slog.New(NewSlogHandler()).WithGroup("tree")
	slogger.Info("grouped", slog.String("child", "sync-layer"))

	output := buf.String()
	if !strings.Contains(output, `"tree.child":"sync-layer"`) {
		t.Errorf("expected group-prefixed key in output: %s", output)
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	tests := []struct {
		name         string
		zerologLevel zerolog.Level
		slogLevel    slog.Level
		want         bool
	}{
		{"debug logger enables debug", zerolog.DebugLevel, slog.LevelDebug, true},
		{"info logger disables debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger enables info", zerolog.InfoLevel, slog.LevelInfo, true},
		{"info logger enables warn", zerolog.InfoLevel, slog.LevelWarn, true},
		{"warn logger disables info", zerolog.WarnLevel, slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &SlogHandler{logger: zerolog.New(nil).Level(tt.zerologLevel)}
			if got := handler.Enabled(context.Background(), tt.slogLevel); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.slogLevel, got, tt.want)
			}
		})
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := NewSlogLogger()
	if slogger == nil {
		t.Fatal("NewSlogLogger() = nil, want non-nil")
	}

	slogger.Info("bridge message")
	if !strings.Contains(buf.String(), "bridge message") {
		t.Errorf("expected bridged message in output: %s", buf.String())
	}
}
