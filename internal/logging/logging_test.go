package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

func resetDefault(t *testing.T) {
	t.Helper()
	defaultLogger = nil
	once = sync.Once{}
	t.Cleanup(func() {
		defaultLogger = nil
		once = sync.Once{}
	})
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	t.Setenv("DEBUG", "")
	var buf bytes.Buffer

	logger, err := New(Options{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("catalog refreshed")
	logger.Info("server ready")

	output := buf.String()
	if strings.Contains(output, "catalog refreshed") {
		t.Errorf("Expected debug record to be filtered at info level, got: %s", output)
	}
	if !strings.Contains(output, "server ready") {
		t.Errorf("Expected info record in output, got: %s", output)
	}
	if logger.IsDebug() {
		t.Error("Info-level logger should not report debug mode")
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Setenv("DEBUG", "")
	var buf bytes.Buffer

	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("Log files found", "count", 2)

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("Expected one JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "Log files found" {
		t.Errorf("Unexpected msg: %v", record["msg"])
	}
	if record["count"] != float64(2) {
		t.Errorf("Unexpected count: %v", record["count"])
	}
	if !logger.IsDebug() {
		t.Error("Debug-level logger should report debug mode")
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want log.Formatter
	}{
		{"", log.TextFormatter},
		{"text", log.TextFormatter},
		{"JSON", log.JSONFormatter},
		{" logfmt ", log.LogfmtFormatter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNew_DebugEnvWritesStateFile(t *testing.T) {
	t.Cleanup(xdg.Reload)
	stateDir := t.TempDir()
	t.Setenv("DEBUG", "1")
	t.Setenv("XDG_STATE_HOME", stateDir)
	xdg.Reload()

	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !logger.IsDebug() {
		t.Error("DEBUG should force debug level")
	}
	logger.Debug("resource synced", "uri", "logs://app.log")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second Close should be a no-op: %v", err)
	}
	logger.Debug("after close")

	data, err := os.ReadFile(filepath.Join(stateDir, "jsonlogs", "debug.txt"))
	if err != nil {
		t.Fatalf("Expected debug file: %v", err)
	}
	if !strings.Contains(string(data), "resource synced") {
		t.Errorf("Expected debug file to mirror records, got: %s", data)
	}
	if !strings.Contains(buf.String(), "resource synced") {
		t.Errorf("Expected output writer to receive records, got: %s", buf.String())
	}
	if strings.Contains(string(data), "after close") || !strings.Contains(buf.String(), "after close") {
		t.Errorf("Expected records after Close to reach only the primary output")
	}
}

func TestNewQuietLogger(t *testing.T) {
	t.Setenv("DEBUG", "")

	if NewQuietLogger().IsDebug() {
		t.Error("Quiet logger should not emit debug records")
	}
	if NewQuietLogger().logger.GetLevel() != log.WarnLevel {
		t.Error("Quiet logger should be at warn level")
	}
}

func TestWith_AddsKeyvals(t *testing.T) {
	logger, buf := NewTestLogger()

	child := logger.With("component", "catalog")
	child.Info("refreshed", "files", 3)

	output := buf.String()
	if !strings.Contains(output, "component=catalog") {
		t.Errorf("Expected child logger to carry component key, got: %s", output)
	}
	if !strings.Contains(output, "files=3") {
		t.Errorf("Expected record keyvals in output, got: %s", output)
	}
	if !child.IsDebug() {
		t.Error("Expected child logger to inherit the debug level")
	}
}

func TestPrintfStyleAdapters(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.Infof("listening on %s", ":8000")
	logger.Errorf("session %d failed", 7)
	logger.StandardLog().Print("stdio read error")

	output := buf.String()
	for _, want := range []string{"listening on :8000", "session 7 failed", "stdio read error"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestDebugObject(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.DebugObject("query_logs filter", struct {
		Level string
		Limit int
	}{Level: "ERROR", Limit: 20})

	output := buf.String()
	if !strings.Contains(output, "Object dump") {
		t.Errorf("Expected log output to contain 'Object dump', got: %s", output)
	}
	if !strings.Contains(output, "Limit:20") {
		t.Errorf("Expected object fields in output, got: %s", output)
	}
}

func TestLogPerformance(t *testing.T) {
	logger, buf := NewTestLogger()

	start := time.Now()
	time.Sleep(1 * time.Millisecond)
	logger.LogPerformance("aggregate", start)

	output := buf.String()
	for _, want := range []string{"Performance", "aggregate", "duration"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestGetDefault_Singleton(t *testing.T) {
	resetDefault(t)
	t.Setenv("DEBUG", "")

	logger1 := GetDefault()
	logger2 := GetDefault()

	if logger1 != logger2 {
		t.Error("Expected GetDefault() to return the same instance (singleton)")
	}
	Debug("not emitted at info level")
}
