package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoggerWritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(LevelInfo, &buf).Named("reconcile").With("game_id", "401585601")

	logger.Debug("hidden")
	logger.Warn("record escalated", "record_id", "br-1", "attempt", 2, "error", errors.New("ambiguous"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered at info level: %s", out)
	}
	for _, want := range []string{
		`"component":"reconcile"`,
		`"game_id":"401585601"`,
		`"record_id":"br-1"`,
		`"attempt":2`,
		`"error":"ambiguous"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestSetMirrorReceivesEnabledEntries(t *testing.T) {
	var got []string
	SetMirror(func(_ context.Context, level Level, msg string, args ...any) {
		got = append(got, level.String()+":"+msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger := NewJSONWriter(LevelInfo, &bytes.Buffer{})
	logger.Debug("filtered")
	logger.InfoContext(context.Background(), "game reconciled", "event_id", "401585601")

	if len(got) != 1 || got[0] != "info:game reconciled" {
		t.Fatalf("unexpected mirrored entries %v", got)
	}
}
