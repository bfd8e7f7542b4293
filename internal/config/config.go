package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jsonlogs/internal/analyzer"
	"jsonlogs/internal/logging"
	"jsonlogs/pkg/fileops"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "jsonlogs" // application name used for config directory

// LogDirEnv names the environment variable that overrides the log directory.
const LogDirEnv = "JSON_LOGS_DIR"

// Transport names accepted by the server.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http" // streamable HTTP
	TransportSSE   = "sse"
)

// Config holds the server configuration.
type Config struct {
	// LogDir is the directory scanned for *.log* files.
	LogDir string `yaml:"log_dir"`

	Transport string `yaml:"transport"` // stdio, http or sse
	HTTPAddr  string `yaml:"http_addr"` // listen address for the network transports

	MaxQueryLimit    int `yaml:"max_query_limit"`
	ResourceMaxLines int `yaml:"resource_max_lines"`
	ReadWorkers      int `yaml:"read_workers"`
	MaxLineBytes     int `yaml:"max_line_bytes"`

	// Watch refreshes the catalog whenever the log directory changes.
	Watch bool `yaml:"watch"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn or error
	LogFormat string `yaml:"log_format"` // text, json or logfmt
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() string {
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// DefaultConfig returns a Config with sensible defaults. LogDir is left empty:
// it has no default and must come from the file, the environment or a flag.
func DefaultConfig() Config {
	return Config{
		Transport:        TransportStdio,
		HTTPAddr:         ":8000",
		MaxQueryLimit:    10000,
		ResourceMaxLines: 1000,
		ReadWorkers:      4,
		MaxLineBytes:     1024 * 1024,
		LogLevel:         "info",
		LogFormat:        logging.FormatText,
	}
}

// Load builds the effective configuration: defaults, then the config file
// (path, or the standard location when path is empty), then the environment.
// A missing file at the standard location is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		logging.Debug("No config file, using defaults", "path", path)
	}

	cfg.ApplyEnv()
	return &cfg, nil
}

// LoadFrom loads config from a specific path on top of the defaults
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if dir, ok := os.LookupEnv(LogDirEnv); ok && strings.TrimSpace(dir) != "" {
		c.LogDir = dir
	}
}

// Validate checks the configuration and normalizes LogDir to an absolute path.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogDir) == "" {
		return fmt.Errorf("log directory is not configured (set log_dir, %s or --log-dir)", LogDirEnv)
	}

	abs, err := filepath.Abs(fileops.ExpandPath(strings.TrimSpace(c.LogDir)))
	if err != nil {
		return fmt.Errorf("cannot resolve log directory: %w", err)
	}
	c.LogDir = abs

	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportSSE:
	default:
		return fmt.Errorf("unsupported transport %q (want %s, %s or %s)", c.Transport, TransportStdio, TransportHTTP, TransportSSE)
	}

	if c.Transport != TransportStdio && strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("%s transport requires http_addr", c.Transport)
	}
	if c.MaxQueryLimit <= 0 {
		return fmt.Errorf("max_query_limit must be positive, got %d", c.MaxQueryLimit)
	}
	if c.ResourceMaxLines <= 0 {
		return fmt.Errorf("resource_max_lines must be positive, got %d", c.ResourceMaxLines)
	}
	if c.ReadWorkers <= 0 {
		return fmt.Errorf("read_workers must be positive, got %d", c.ReadWorkers)
	}
	if c.MaxLineBytes < 1024 {
		return fmt.Errorf("max_line_bytes must be at least 1024, got %d", c.MaxLineBytes)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("invalid log_format: %w", err)
	}
	return nil
}

// AnalyzerOptions maps the engine limits onto analyzer options.
func (c *Config) AnalyzerOptions() analyzer.Options {
	return analyzer.Options{
		MaxQueryLimit: c.MaxQueryLimit,
		ReadWorkers:   c.ReadWorkers,
		MaxLineBytes:  c.MaxLineBytes,
	}
}

// LoggerOptions maps the logging settings onto logging options.
func (c *Config) LoggerOptions() logging.Options {
	return logging.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
	}
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
