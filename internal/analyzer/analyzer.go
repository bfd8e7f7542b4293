// Package analyzer implements the log-analysis engine: reading catalogued files
// through the entry parser, filtered queries, grouping aggregations and
// corpus-wide statistics.
//
// Multi-file operations are best-effort. Each file is read independently and
// produces a per-file result; files that cannot be resolved or read are
// dropped when the results are folded together, and only cancellation of the
// caller's context fails the whole operation.
package analyzer

import (
	"jsonlogs/internal/catalog"
	"jsonlogs/internal/logging"
)

// Defaults applied when Options leaves a field at zero.
const (
	DefaultQueryLimit    = 100
	DefaultMaxQueryLimit = 10000
	DefaultReadWorkers   = 4
	DefaultMaxLineBytes  = 1024 * 1024
)

// Options tunes resource bounds of the engine.
type Options struct {
	// MaxQueryLimit caps the number of entries a query may return.
	MaxQueryLimit int

	// ReadWorkers bounds how many files are read concurrently.
	ReadWorkers int

	// MaxLineBytes is the longest line the reader accepts. Longer lines fail
	// the read of that file.
	MaxLineBytes int
}

func (o Options) withDefaults() Options {
	if o.MaxQueryLimit <= 0 {
		o.MaxQueryLimit = DefaultMaxQueryLimit
	}
	if o.ReadWorkers <= 0 {
		o.ReadWorkers = DefaultReadWorkers
	}
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	return o
}

// Analyzer answers queries over the files of one catalog. It holds no mutable
// state of its own and is safe for concurrent use.
type Analyzer struct {
	catalog *catalog.Catalog
	logger  *logging.AppLogger
	opts    Options
}

// New creates an Analyzer reading files through cat.
func New(cat *catalog.Catalog, logger *logging.AppLogger, opts Options) *Analyzer {
	return &Analyzer{
		catalog: cat,
		logger:  logger,
		opts:    opts.withDefaults(),
	}
}

// ListFiles refreshes the catalog and returns its files, newest first.
func (a *Analyzer) ListFiles() ([]catalog.FileInfo, error) {
	return a.catalog.List()
}

// selectFiles returns the requested names, or every currently catalogued file
// when names is nil. An empty non-nil slice selects nothing.
func (a *Analyzer) selectFiles(names []string) []string {
	if names == nil {
		return a.catalog.Names()
	}
	return names
}
