package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_WritesJSONFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nezhatop.log")
	var console bytes.Buffer

	logger, closeLog, err := New(Options{Level: "info", File: path, Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("server fetch failed", zap.String("component", "monitor"))
	if err := closeLog(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log file has %d lines, want 1: %q", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "server fetch failed" || entry["component"] != "monitor" {
		t.Fatalf("entry = %#v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("entry missing time key: %#v", entry)
	}
	if !strings.Contains(console.String(), "server fetch failed") {
		t.Fatalf("console = %q, want message", console.String())
	}
}

func TestNew_NoOutputsIsNop(t *testing.T) {
	logger, closeLog, err := New(Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped")
	if err := closeLog(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}
}
