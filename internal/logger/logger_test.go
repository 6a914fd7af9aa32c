package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/elevatecrm/realtime/internal/config"
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
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewReturnsLogger(t *testing.T) {
	l := New(config.Logging{Level: "debug", Service: "realtime-test"})
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" || ConnectionID(ctx) != "" {
		t.Fatal("expected empty ids on bare context")
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithConnectionID(ctx, "conn-1")

	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID = %q", got)
	}
	if got := ConnectionID(ctx); got != "conn-1" {
		t.Errorf("ConnectionID = %q", got)
	}
}
