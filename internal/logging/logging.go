// Package logging wraps charmbracelet/log for the server and the CLI.
//
// Records always go to stderr (or a caller supplied writer): stdout belongs to
// the stdio transport. Setting DEBUG in the environment forces debug level and
// mirrors every record to $XDG_STATE_HOME/jsonlogs/debug.txt.
package logging

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Options selects level, format and destination of a logger. Zero values
// mean info level, text format and stderr.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// AppLogger wraps a charmbracelet logger.
type AppLogger struct {
	logger    *log.Logger
	output    io.Writer
	debugFile *os.File
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the process-wide logger, creating it on first use.
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Debug logs through the process-wide logger.
func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

// ParseFormat maps a format name onto a charm formatter.
func ParseFormat(name string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("unknown log format %q (want %s, %s or %s)", name, FormatText, FormatJSON, FormatLogfmt)
}

// ParseLevel maps a level name onto a charm level. Empty means info.
func ParseLevel(name string) (log.Level, error) {
	if strings.TrimSpace(name) == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
}

// New builds a logger from opts. DEBUG in the environment overrides the
// level and adds the debug file.
func New(opts Options) (*AppLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var base io.Writer = os.Stderr
	if opts.Output != nil {
		base = opts.Output
	}
	out := base

	debugEnv := os.Getenv("DEBUG") != ""
	var fileErr error
	var logPath string
	var debugFile *os.File
	if debugEnv {
		level = log.DebugLevel
		logPath, fileErr = xdg.StateFile(filepath.Join("jsonlogs", "debug.txt"))
		if fileErr == nil {
			// Truncated on each run
			if debugFile, fileErr = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); fileErr == nil {
				out = io.MultiWriter(out, debugFile)
			}
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "jsonlogs",
		Formatter:       formatter,
	})
	logger.SetLevel(level)

	if debugEnv {
		if fileErr != nil {
			logger.Warn("Debug log file unavailable, logging to stderr only", "error", fileErr)
		} else {
			logger.Info("Debug logging enabled", "log_file", logPath)
		}
	}

	return &AppLogger{logger: logger, output: base, debugFile: debugFile}, nil
}

// Close releases the debug file, if any. The logger keeps writing to its
// primary output afterwards.
func (al *AppLogger) Close() error {
	if al.debugFile == nil {
		return nil
	}
	f := al.debugFile
	al.debugFile = nil
	al.logger.SetOutput(al.output)
	return f.Close()
}

// NewAppLogger returns an info-level text logger on stderr.
func NewAppLogger() *AppLogger {
	al, err := New(Options{})
	if err != nil {
		// Defaults always parse.
		panic(err)
	}
	return al
}

// NewQuietLogger returns a logger that only reports warnings and errors
// unless DEBUG is set. The one-shot CLI commands use it so their JSON output
// stays readable.
func NewQuietLogger() *AppLogger {
	al := NewAppLogger()
	if !al.IsDebug() {
		al.logger.SetLevel(log.WarnLevel)
	}
	return al
}

func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	al.logger.Debug(msg, keyvals...)
}

// With returns a child logger that prefixes every record with keyvals.
func (al *AppLogger) With(keyvals ...interface{}) *AppLogger {
	return &AppLogger{logger: al.logger.With(keyvals...), output: al.output}
}

// Infof and Errorf let the logger stand in for printf-style loggers expected
// by transport libraries.
func (al *AppLogger) Infof(format string, args ...interface{}) {
	al.logger.Infof(format, args...)
}

func (al *AppLogger) Errorf(format string, args ...interface{}) {
	al.logger.Errorf(format, args...)
}

// StandardLog returns a *log.Logger from the standard library that writes
// through this logger at error level.
func (al *AppLogger) StandardLog() *stdlog.Logger {
	return al.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})
}

// IsDebug reports whether debug records are emitted.
func (al *AppLogger) IsDebug() bool {
	return al.logger.GetLevel() <= log.DebugLevel
}

func (al *AppLogger) DebugObject(name string, obj interface{}) {
	if al.IsDebug() {
		al.logger.Debug("Object dump", "name", name, "object", fmt.Sprintf("%+v", obj))
	}
}

// LogPerformance records how long an operation took (debug only).
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.IsDebug() {
		al.logger.Debug("Performance",
			"operation", operation,
			"duration", time.Since(start),
		)
	}
}

// NewTestLogger creates a debug-level logger that writes to a buffer.
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		Prefix: "Test",
	})
	logger.SetLevel(log.DebugLevel)

	return &AppLogger{logger: logger}, &buf
}
