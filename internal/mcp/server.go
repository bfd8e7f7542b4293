package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"jsonlogs/internal/analyzer"
	"jsonlogs/internal/catalog"
	"jsonlogs/internal/config"
	"jsonlogs/internal/logging"
	"jsonlogs/internal/metrics"
	"jsonlogs/internal/watcher"

	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "json-logs-mcp-server"
	serverVersion = "1.0.0"
)

// shutdownTimeout bounds how long network transports wait for in-flight
// requests after the context is cancelled.
const shutdownTimeout = 5 * time.Second

// Server represents an MCP server instance using mcp-go
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	catalog   *catalog.Catalog
	analyzer  *analyzer.Analyzer
	mcpServer *server.MCPServer
	watcher   *watcher.Watcher
	metrics   *metrics.Metrics

	resMu     sync.Mutex
	resources map[string]string // uri -> description last registered
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *logging.AppLogger) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		resources: make(map[string]string),
	}
}

// initializeComponents builds the catalog, the engine and the mcp-go server
// and registers every tool and resource. It does not touch any transport.
func (s *Server) initializeComponents() error {
	if s.config == nil {
		return errors.New("server config is nil")
	}
	if s.config.LogDir == "" {
		return errors.New("log directory not configured")
	}

	s.catalog = catalog.New(s.config.LogDir, s.logger)
	s.analyzer = analyzer.New(s.catalog, s.logger, s.config.AnalyzerOptions())
	s.metrics = metrics.New()

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	s.registerTools()
	s.registerResourceTemplate()

	files, err := s.analyzer.ListFiles()
	if err != nil {
		return fmt.Errorf("failed to scan log directory: %w", err)
	}
	s.syncResources(files)

	return nil
}

// logStartupDiagnostics reports the effective log directory and what was found
// in it. A missing directory is only a warning: it may be created later.
func (s *Server) logStartupDiagnostics() {
	s.logger.Info("Starting JSON logs MCP server",
		"logDir", s.config.LogDir,
		"transport", s.config.Transport,
	)

	if _, err := os.Stat(s.config.LogDir); err != nil {
		s.logger.Warn("Log directory does not exist", "logDir", s.config.LogDir, "error", err)
		return
	}
	s.logger.Info("Log files found", "count", len(s.catalog.Snapshot()))
}

// Start initializes the server and serves the configured transport until ctx
// is cancelled or the transport fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Initializing MCP server")

	if err := s.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}
	s.logStartupDiagnostics()

	if s.config.Watch {
		if err := s.startWatcher(ctx); err != nil {
			s.logger.Warn("Log directory watch disabled", "error", err)
		}
	}

	switch s.config.Transport {
	case config.TransportHTTP:
		s.logger.Info("Serving streamable HTTP", "addr", s.config.HTTPAddr, "endpoint", "/mcp")
		mux := http.NewServeMux()
		mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcpServer, server.WithLogger(s.logger)))
		mux.Handle("/metrics", s.metrics.Handler())
		return s.serveHTTP(ctx, mux)

	case config.TransportSSE:
		s.logger.Info("Serving SSE", "addr", s.config.HTTPAddr, "endpoint", "/sse")
		mux := http.NewServeMux()
		mux.Handle("/", server.NewSSEServer(s.mcpServer))
		mux.Handle("/metrics", s.metrics.Handler())
		return s.serveHTTP(ctx, mux)

	default:
		stdio := server.NewStdioServer(s.mcpServer)
		stdio.SetErrorLogger(s.logger.StandardLog())
		s.logger.Info("MCP server ready, communicating over stdio")
		if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	}
}

// serveHTTP runs handler on the configured address until ctx is cancelled.
func (s *Server) serveHTTP(ctx context.Context, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP shutdown error", "error", err)
			httpServer.Close()
		}
		<-errCh
		return nil
	}
}

func (s *Server) startWatcher(ctx context.Context) error {
	w, err := watcher.New(s.config.LogDir, s.logger, watcher.Options{
		Filter:   catalog.IsLogFile,
		OnChange: s.refreshCatalog,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	s.watcher = w
	return nil
}

// refreshCatalog rescans the log directory and re-syncs the resource list.
func (s *Server) refreshCatalog() {
	s.metrics.IncRefreshes()
	if err := s.catalog.Refresh(); err != nil {
		s.logger.Warn("Catalog refresh failed", "error", err)
		return
	}
	s.syncResources(s.catalog.Snapshot())
}

// Stop gracefully shuts down the MCP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	return nil
}
