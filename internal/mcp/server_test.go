package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jsonlogs/internal/config"
	"jsonlogs/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestNewServer(t *testing.T) {
	cfg := testConfig("/tmp/test")
	logger, _ := logging.NewTestLogger()

	server := NewServer(cfg, logger)

	if server == nil {
		t.Fatal("NewServer returned nil")
	}
	if server.config != cfg {
		t.Error("Server config not set correctly")
	}
	if server.logger != logger {
		t.Error("Server logger not set correctly")
	}
	if server.analyzer != nil {
		t.Error("Analyzer should not be initialized until Start() is called")
	}
	if server.mcpServer != nil {
		t.Error("MCP server should not be initialized until Start() is called")
	}
}

func TestInitializeComponents(t *testing.T) {
	server, _ := createTestServerWithFiles(t)

	if err := server.initializeComponents(); err != nil {
		t.Fatalf("Failed to initialize server components: %v", err)
	}
	if server.analyzer == nil || server.catalog == nil || server.mcpServer == nil {
		t.Fatal("Expected catalog, analyzer and MCP server to be initialized")
	}
	if _, ok := server.resources["logs://app.log"]; !ok {
		t.Errorf("Expected app.log to be registered as a resource, got %v", server.resources)
	}
}

func TestInitializeComponentsWithoutLogDir(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	server := NewServer(testConfig(""), logger)

	if err := server.initializeComponents(); err == nil {
		t.Error("initializeComponents should fail without a log directory")
	}
}

func TestInitializeComponentsMissingDirectory(t *testing.T) {
	logger, buf := logging.NewTestLogger()
	cfg := testConfig(filepath.Join(t.TempDir(), "not-yet"))
	server := NewServer(cfg, logger)

	if err := server.initializeComponents(); err != nil {
		t.Fatalf("Missing log directory should not be fatal: %v", err)
	}
	if len(server.resources) != 0 {
		t.Errorf("Expected no resources, got %d", len(server.resources))
	}

	server.logStartupDiagnostics()
	if !strings.Contains(buf.String(), "Log directory does not exist") {
		t.Errorf("Expected a warning about the missing directory, got: %s", buf.String())
	}
}

func TestStartupDiagnosticsCountsFiles(t *testing.T) {
	server, _ := createTestServerWithFiles(t)
	if err := server.initializeComponents(); err != nil {
		t.Fatal(err)
	}

	logger, buf := logging.NewTestLogger()
	server.logger = logger
	server.logStartupDiagnostics()

	if !strings.Contains(buf.String(), "count=2") {
		t.Errorf("Expected file count in diagnostics, got: %s", buf.String())
	}
}

func TestRefreshCatalogSyncsResources(t *testing.T) {
	server, tempDir := createTestServerWithFiles(t)
	if err := server.initializeComponents(); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(tempDir, "app.log")); err != nil {
		t.Fatal(err)
	}
	writeLogFile(t, tempDir, "new.log", logLine("2024-01-15T12:00:00", "INFO", "hello", "m", "f", 1))

	server.refreshCatalog()

	if _, ok := server.resources["logs://app.log"]; ok {
		t.Error("Removed file should no longer be a resource")
	}
	if _, ok := server.resources["logs://new.log"]; !ok {
		t.Error("New file should be registered as a resource")
	}
}

func TestWatcherRegistersNewFiles(t *testing.T) {
	server, tempDir := createTestServerWithFiles(t)
	if err := server.initializeComponents(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.startWatcher(ctx); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	defer server.Stop()

	writeLogFile(t, tempDir, "late.log", logLine("2024-01-15T12:00:00", "INFO", "late", "m", "f", 1))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		server.resMu.Lock()
		_, found := server.resources["logs://late.log"]
		server.resMu.Unlock()
		if found {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("Watcher should have registered late.log")
}

func TestStartHTTPStopsOnCancel(t *testing.T) {
	server, _ := createTestServerWithFiles(t)
	server.config.Transport = config.TransportHTTP
	server.config.HTTPAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned error after cancel: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStop(t *testing.T) {
	server := createTestServer(t)

	if err := server.Stop(); err != nil {
		t.Errorf("Stop should not return error: %v", err)
	}
}

// Helper functions

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.LogDir = dir
	return &cfg
}

func logLine(ts, level, msg, module, function string, line int) string {
	return fmt.Sprintf(`{"timestamp":%q,"level":%q,"message":%q,"module":%q,"function":%q,"line":%d}`,
		ts, level, msg, module, function, line)
}

func writeLogFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", name, err)
	}
}

func createTestServer(t *testing.T) *Server {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	return NewServer(testConfig(t.TempDir()), logger)
}

// createTestServerWithFiles sets up app.log (three valid entries and one
// malformed line), svc.log and a non-log file.
func createTestServerWithFiles(t *testing.T) (*Server, string) {
	t.Helper()
	tempDir := t.TempDir()

	writeLogFile(t, tempDir, "app.log",
		logLine("2024-01-15T10:00:00", "INFO", "service started", "app.main", "start", 10),
		logLine("2024-01-15T10:05:00", "INFO", "request handled", "app.http", "handle", 42),
		`{"timestamp": "2024-01-15T10:06:00", "level": "WARN"`,
		logLine("2024-01-15T10:10:00", "ERROR", "database timeout", "app.db", "query", 7),
	)
	writeLogFile(t, tempDir, "svc.log",
		logLine("2024-01-15T11:00:00", "WARNING", "slow call", "svc.client", "call", 3),
	)
	writeLogFile(t, tempDir, "notes.txt", "not a log")

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(tempDir, "svc.log"), old, old); err != nil {
		t.Fatal(err)
	}

	logger, _ := logging.NewTestLogger()
	return NewServer(testConfig(tempDir), logger), tempDir
}

// callTool invokes a registered handler the way the protocol layer would.
func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var request mcp.CallToolRequest
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("Tool handler returned protocol error: %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("Expected one content item, got %d", len(result.Content))
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}
