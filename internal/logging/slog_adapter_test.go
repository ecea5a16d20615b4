// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
		{slog.LevelError + 4, `"level":"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			l := slog.New(NewSlogHandler(zerolog.New(&buf).Level(zerolog.DebugLevel)))
			l.Log(context.Background(), tt.level, "msg")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %s", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandler(zerolog.New(nil).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled on a warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled on a warn logger")
	}
}

func TestSlogHandler_AttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(NewSlogHandler(zerolog.New(&buf))).
		With("service", "refresh-consumer").
		WithGroup("event")

	l.Info("handled",
		"user_id", int64(4),
		"took", 250*time.Millisecond,
		"ok", true,
		"err", errors.New("boom"),
		slog.Group("msg", "uuid", "abc"),
	)

	out := buf.String()
	for _, want := range []string{
		`"service":"refresh-consumer"`,
		`"event.user_id":4`,
		`"event.took":250`,
		`"event.ok":true`,
		`"event.err":"boom"`,
		`"event.msg.uuid":"abc"`,
		`"message":"handled"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	NewSlogLogger("supervisor").Info("service started", "name", "http")

	out := buf.String()
	if !strings.Contains(out, `"component":"supervisor"`) || !strings.Contains(out, `"name":"http"`) {
		t.Errorf("output = %s", out)
	}
}
