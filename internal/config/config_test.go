package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

func TestConfigPath(t *testing.T) {
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	xdg.Reload()

	want := filepath.Join("/custom/config", "jsonlogs", "config.yaml")
	if got := ConfigPath(); got != want {
		t.Errorf("Expected config path %s, got %s", want, got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogDir != "" {
		t.Errorf("Expected empty LogDir, got %q", cfg.LogDir)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("Expected stdio transport, got %q", cfg.Transport)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("Expected :8000, got %q", cfg.HTTPAddr)
	}
	if cfg.MaxQueryLimit != 10000 || cfg.ResourceMaxLines != 1000 || cfg.ReadWorkers != 4 {
		t.Errorf("Unexpected numeric defaults: %+v", cfg)
	}
	if cfg.MaxLineBytes != 1<<20 {
		t.Errorf("Expected 1 MiB line cap, got %d", cfg.MaxLineBytes)
	}
	if cfg.Watch {
		t.Error("Watch should default to false")
	}
}

func TestConfigSaveLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	original := DefaultConfig()
	original.LogDir = "/var/log/app"
	original.Transport = TransportHTTP
	original.HTTPAddr = "127.0.0.1:9000"
	original.ReadWorkers = 8
	original.Watch = true

	if err := original.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if *loaded != original {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", *loaded, original)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("log_dir: /srv/logs\nwatch: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.LogDir != "/srv/logs" || !cfg.Watch {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.MaxQueryLimit != 10000 || cfg.Transport != TransportStdio {
		t.Errorf("Defaults lost: %+v", cfg)
	}
}

func TestLoadFrom_EmptyFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Empty file should load, got %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoad_Precedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("log_dir: /from/file\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("file without env", func(t *testing.T) {
		t.Setenv(LogDirEnv, "")
		cfg, err := Load(configPath)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.LogDir != "/from/file" {
			t.Errorf("Expected /from/file, got %q", cfg.LogDir)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv(LogDirEnv, "/from/env")
		cfg, err := Load(configPath)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.LogDir != "/from/env" {
			t.Errorf("Expected /from/env, got %q", cfg.LogDir)
		}
	})
}

func TestLoad_MissingDefaultFileIsNotAnError(t *testing.T) {
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Setenv(LogDirEnv, "/from/env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no config file: %v", err)
	}
	if cfg.LogDir != "/from/env" {
		t.Errorf("Expected env log dir, got %q", cfg.LogDir)
	}
}

func TestConfigFilePermissions(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("Config file should not be readable by group/others, got %o", perm)
	}
}

func TestConfigValidate(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
		wantDir string
	}{
		{
			name:    "missing log dir",
			mutate:  func(c *Config) { c.LogDir = "  " },
			wantErr: "log directory is not configured",
		},
		{
			name:    "absolute dir kept",
			mutate:  func(c *Config) { c.LogDir = "/var/log/app" },
			wantDir: "/var/log/app",
		},
		{
			name:    "home expanded",
			mutate:  func(c *Config) { c.LogDir = "~/logs" },
			wantDir: filepath.Join(home, "logs"),
		},
		{
			name:    "bad transport",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.Transport = "grpc" },
			wantErr: "unsupported transport",
		},
		{
			name:    "http without addr",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.Transport = TransportHTTP; c.HTTPAddr = "" },
			wantErr: "requires http_addr",
		},
		{
			name:    "sse without addr",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.Transport = TransportSSE; c.HTTPAddr = " " },
			wantErr: "sse transport requires http_addr",
		},
		{
			name:    "sse accepted",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.Transport = TransportSSE },
			wantDir: "/tmp",
		},
		{
			name:    "zero query limit",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.MaxQueryLimit = 0 },
			wantErr: "max_query_limit",
		},
		{
			name:    "zero resource lines",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.ResourceMaxLines = 0 },
			wantErr: "resource_max_lines",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.ReadWorkers = 0 },
			wantErr: "read_workers",
		},
		{
			name:    "tiny line cap",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.MaxLineBytes = 10 },
			wantErr: "max_line_bytes",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.LogLevel = "chatty" },
			wantErr: "invalid log_level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.LogFormat = "xml" },
			wantErr: "invalid log_format",
		},
		{
			name:    "json logs at debug",
			mutate:  func(c *Config) { c.LogDir = "/tmp"; c.LogLevel = "debug"; c.LogFormat = "json" },
			wantDir: "/tmp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg.LogDir != tt.wantDir {
				t.Errorf("Expected LogDir %q, got %q", tt.wantDir, cfg.LogDir)
			}
		})
	}
}

func TestAnalyzerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueryLimit = 50
	cfg.ReadWorkers = 2

	opts := cfg.AnalyzerOptions()
	if opts.MaxQueryLimit != 50 || opts.ReadWorkers != 2 || opts.MaxLineBytes != cfg.MaxLineBytes {
		t.Errorf("Unexpected analyzer options: %+v", opts)
	}
}

func TestLoggerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "logfmt"

	opts := cfg.LoggerOptions()
	if opts.Level != "warn" || opts.Format != "logfmt" || opts.Output != nil {
		t.Errorf("Unexpected logger options: %+v", opts)
	}
}

func TestConfigErrorHandling(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("explicit missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(tempDir, "nonexistent.yaml")); err == nil {
			t.Error("Expected error for explicit missing config file")
		}
	})

	t.Run("invalid YAML", func(t *testing.T) {
		invalidPath := filepath.Join(tempDir, "invalid.yaml")
		if err := os.WriteFile(invalidPath, []byte("log_dir: [unclosed\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(invalidPath); err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(tempDir, "unknown.yaml")
		if err := os.WriteFile(path, []byte("log_directory: /x\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Error("Expected error for unknown field")
		}
	})
}
