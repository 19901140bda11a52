package logger

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"DEBUG":  slog.LevelDebug,
		"warn":   slog.LevelWarn,
		"ERROR":  slog.LevelError,
		"INFO-4": slog.LevelDebug,
		"":       slog.LevelInfo,
		"loud":   slog.LevelInfo,
	}

	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
