// Package catalog maintains the index of log files available in the configured
// log directory.
//
// The index is an immutable snapshot rebuilt wholesale on every refresh and
// published with a single atomic pointer swap, so readers always observe
// either the previous or the next complete snapshot.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"jsonlogs/internal/logging"
	"jsonlogs/pkg/fileops"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound is matched by NotFoundError through errors.Is.
var ErrNotFound = errors.New("log file not found")

// NotFoundError reports a log file name missing from the catalog even after a
// refresh.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Log file %s not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FileInfo describes one catalogued log file.
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

type snapshot struct {
	byName map[string]FileInfo
	sorted []FileInfo
}

// Catalog indexes the log files of one directory.
type Catalog struct {
	dir    string
	logger *logging.AppLogger

	current   atomic.Pointer[snapshot]
	refreshMu sync.Mutex
}

// New creates an empty catalog for dir. Call Refresh to populate it.
func New(dir string, logger *logging.AppLogger) *Catalog {
	c := &Catalog{
		dir:    dir,
		logger: logger,
	}
	c.current.Store(&snapshot{byName: map[string]FileInfo{}})
	return c
}

// Dir returns the directory the catalog scans.
func (c *Catalog) Dir() string {
	return c.dir
}

// LogFilePattern is the glob a base filename must match to be catalogued.
// It covers plain and rotated names such as app.log, app.log.1 and
// app.log.2024-01-01.
const LogFilePattern = "*.log*"

// IsLogFile reports whether a base filename matches LogFilePattern.
func IsLogFile(name string) bool {
	ok, err := doublestar.Match(LogFilePattern, name)
	return err == nil && ok
}

// Refresh rescans the directory and replaces the catalog. A missing directory
// produces an empty catalog rather than an error.
func (c *Catalog) Refresh() error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	files, err := fileops.ScanDirectory(c.dir, &fileops.DirectoryScanOptions{
		IncludeHidden:  true,
		SkipUnreadable: true,
		FileFilter:     IsLogFile,
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Log directory does not exist, catalog is empty", "dir", c.dir)
			c.current.Store(&snapshot{byName: map[string]FileInfo{}})
			return nil
		}
		return fmt.Errorf("failed to scan log directory: %w", err)
	}

	next := &snapshot{
		byName: make(map[string]FileInfo, len(files)),
		sorted: make([]FileInfo, 0, len(files)),
	}
	for _, f := range files {
		info := FileInfo{
			Name:     f.Name,
			Path:     f.Path,
			Size:     f.Size,
			Modified: f.ModTime,
		}
		next.byName[info.Name] = info
		next.sorted = append(next.sorted, info)
	}
	sort.SliceStable(next.sorted, func(i, j int) bool {
		a, b := next.sorted[i], next.sorted[j]
		if !a.Modified.Equal(b.Modified) {
			return a.Modified.After(b.Modified)
		}
		return a.Name < b.Name
	})

	c.current.Store(next)
	c.logger.Debug("Catalog refreshed", "dir", c.dir, "files", len(next.sorted), "duration", time.Since(start))
	return nil
}

// List refreshes the catalog and returns its files, newest first.
func (c *Catalog) List() ([]FileInfo, error) {
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// Snapshot returns the current files, newest first, without refreshing.
func (c *Catalog) Snapshot() []FileInfo {
	snap := c.current.Load()
	out := make([]FileInfo, len(snap.sorted))
	copy(out, snap.sorted)
	return out
}

// Names returns the names of the current files, newest first, without
// refreshing.
func (c *Catalog) Names() []string {
	snap := c.current.Load()
	names := make([]string, len(snap.sorted))
	for i, f := range snap.sorted {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the descriptor for name from the current snapshot.
func (c *Catalog) Lookup(name string) (FileInfo, bool) {
	info, ok := c.current.Load().byName[name]
	return info, ok
}

// Resolve maps a file name to its path. A miss triggers one refresh before
// failing with a NotFoundError.
func (c *Catalog) Resolve(name string) (string, error) {
	if err := fileops.ValidateFileName(name); err != nil {
		return "", &NotFoundError{Name: name}
	}

	if info, ok := c.Lookup(name); ok {
		return info.Path, nil
	}

	if err := c.Refresh(); err != nil {
		return "", fmt.Errorf("failed to refresh catalog: %w", err)
	}

	info, ok := c.Lookup(name)
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return info.Path, nil
}
