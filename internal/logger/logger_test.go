package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Strob0t/TokenCalc/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_ReturnsUsableLogger(t *testing.T) {
	log := New(config.Logging{Level: "debug", Service: "test"})
	if log == nil {
		t.Fatal("New returned nil")
	}
	// Must not panic with or without a request ID in context.
	log.InfoContext(context.Background(), "hello")
	log.InfoContext(WithRequestID(context.Background(), "rid-1"), "hello")
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Fatalf("empty context request ID = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "abc123")
	if got := RequestID(ctx); got != "abc123" {
		t.Fatalf("request ID = %q, want abc123", got)
	}
}
