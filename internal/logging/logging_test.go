package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger_Formats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		terminal bool
		wantJSON bool
	}{
		{name: "json", format: "json", wantJSON: true},
		{name: "text", format: "text", wantJSON: false},
		{name: "auto on terminal", format: "auto", terminal: true, wantJSON: false},
		{name: "auto piped", format: "auto", terminal: false, wantJSON: true},
		{name: "empty defaults to json", format: "", wantJSON: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, "info", tc.format, tc.terminal)
			WithProjectID(WithComponent(logger, "studio"), "p1").Info("hello")

			var decoded map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &decoded) == nil
			if isJSON != tc.wantJSON {
				t.Fatalf("json output = %v, want %v: %s", isJSON, tc.wantJSON, buf.String())
			}
			if !strings.Contains(buf.String(), "p1") || !strings.Contains(buf.String(), "studio") {
				t.Fatalf("missing attributes: %s", buf.String())
			}
		})
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json", false)
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn not logged")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("short"); got != "****" {
		t.Errorf("SanitizeToken(short) = %q", got)
	}
	if got := SanitizeToken("abcdefghijkl"); got != "abcd...ijkl" {
		t.Errorf("SanitizeToken() = %q", got)
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := SanitizePath(filepath.Join(home, "projects")); got != "~"+string(filepath.Separator)+"projects" {
		t.Errorf("SanitizePath() = %q", got)
	}
	if got := SanitizePath("/opt/x"); !strings.HasPrefix(home, "/opt/x") && got != "/opt/x" {
		t.Errorf("SanitizePath(/opt/x) = %q", got)
	}
}
