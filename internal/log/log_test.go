package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", false).With().Str("component", "ledger").Logger()
	l.Debug().Msg("hidden")
	l.Info().Uint64("launch_id", 7).Msg("launch created")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug must be filtered)", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["component"] != "ledger" || entry["launch_id"] != float64(7) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")
	if err := Init("info", true, path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Init("info", false, "")

	Bank.Info().Msg("credited")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"bank"`) {
		t.Errorf("log file missing component entry: %s", data)
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", true).With().Str("component", "rpc").Logger()
	l.Debug().Str("method", "launch_get").Msg("request")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("console output is JSON: %s", out)
	}
	for _, want := range []string{"request", "component=", "rpc", "launch_get"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q missing %q", out, want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"trace", "DEBUG", "info", "warn", "error"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false", lvl)
		}
	}
	for _, lvl := range []string{"", "fatal", "verbose"} {
		if ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = true", lvl)
		}
	}
}
