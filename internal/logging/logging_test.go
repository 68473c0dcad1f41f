package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRequestIDIsAttached(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)
	ctx := WithRequestID(context.Background(), "abc-123")
	log.InfoContext(ctx, "fetch failed", "status", 500)

	out := buf.String()
	if !strings.Contains(out, "request_id=abc-123") {
		t.Fatalf("expected request id in %q", out)
	}
	if !strings.Contains(out, "status=500") {
		t.Fatalf("expected attrs in %q", out)
	}
}

func TestLevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, ParseLevel("warn"))
	log.Info("hidden")
	log.With("screen", "dashboard").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.Contains(out, "screen=dashboard") {
		t.Fatalf("expected With attrs to survive: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestNewFileAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "pitchdesk.log")
	log, closer, err := NewFile(path, slog.LevelDebug)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	log.Debug("first")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "first") {
		t.Fatalf("expected log line, got %q", string(b))
	}
}
