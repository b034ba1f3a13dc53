package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseLevel(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentStorage, Output: &buf})

	l.InfoContext(context.Background(), "saved", NewFields().WithExpense("2024-01-01", "Food", 100).ToSlice()...)
	out := buf.String()
	for _, want := range []string{`"component":"storage"`, `"category":"Food"`, `"amount_cents":100`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}

	buf.Reset()
	l.WithComponent(ComponentImporter).Warn("skipped")
	if !strings.Contains(buf.String(), `"component":"importer"`) {
		t.Fatalf("expected importer component, got %s", buf.String())
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
	l.Error("shown", NewFields().WithError(errors.New("boom")).ToSlice()...)
	if !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("expected error field, got %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := New(DefaultConfig())
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("expected the stored logger")
	}
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", got)
	}
}
