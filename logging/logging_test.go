package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestParseLevel tests accepted names and aliases.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"error", LevelError, false},
		{"WARN", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" Info ", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"trace", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestSlogLevel tests the mapping to slog levels.
func TestSlogLevel(t *testing.T) {
	if got := LevelDebug.SlogLevel(); got != slog.LevelDebug {
		t.Errorf("debug maps to %v", got)
	}
	if got := Level("bogus").SlogLevel(); got != slog.LevelInfo {
		t.Errorf("unknown level maps to %v, want info", got)
	}
}

// TestNew_FiltersBelowLevel tests that the handler honours the level.
func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelWarn, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "pin", 18)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "pin=18") {
		t.Errorf("warn record missing: %q", out)
	}
}
