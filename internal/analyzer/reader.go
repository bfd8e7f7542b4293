package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"jsonlogs/internal/logentry"
	"jsonlogs/pkg/fileops"

	"golang.org/x/sync/errgroup"
)

// ReadFile parses the named file in line order. When maxLines is positive, at
// most that many raw lines are examined, whether or not they parse.
// Unparseable lines are skipped. Resolution failures are returned as
// *catalog.NotFoundError and I/O failures as *ReadError.
func (a *Analyzer) ReadFile(ctx context.Context, name string, maxLines int) ([]*logentry.Entry, error) {
	path, err := a.catalog.Resolve(name)
	if err != nil {
		return nil, err
	}

	if err := fileops.ValidateFileInDirectory(path, fileops.ExpandPath(a.catalog.Dir())); err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}
	defer f.Close()

	// The scanner's limit is the larger of its max and the initial capacity
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, min(64*1024, a.opts.MaxLineBytes)), a.opts.MaxLineBytes)

	var entries []*logentry.Entry
	lines := 0
	for (maxLines <= 0 || lines < maxLines) && scanner.Scan() {
		lines++

		if err := ctx.Err(); err != nil {
			return nil, &ReadError{Name: name, Err: err}
		}

		raw := scanner.Bytes()
		if !utf8.Valid(raw) {
			return nil, &ReadError{Name: name, Err: fmt.Errorf("line %d: %w", lines, ErrInvalidEncoding)}
		}

		if entry, ok := logentry.Parse(string(raw)); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ReadError{Name: name, Err: err}
	}

	a.logger.Debug("Read log file", "name", name, "lines", lines, "entries", len(entries))
	return entries, nil
}

// fileResult is the outcome of reading one file within a multi-file operation.
type fileResult struct {
	name    string
	entries []*logentry.Entry
	err     error
}

// readFiles reads every named file with bounded concurrency. Results keep the
// order of names. The returned error is non-nil only when ctx is done.
func (a *Analyzer) readFiles(ctx context.Context, names []string) ([]fileResult, error) {
	results := make([]fileResult, len(names))

	var g errgroup.Group
	g.SetLimit(a.opts.ReadWorkers)
	for i, name := range names {
		g.Go(func() error {
			entries, err := a.ReadFile(ctx, name, 0)
			results[i] = fileResult{name: name, entries: entries, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// collect folds per-file results into one entry sequence, dropping failed
// files.
func (a *Analyzer) collect(results []fileResult) []*logentry.Entry {
	var total int
	for _, r := range results {
		total += len(r.entries)
	}

	entries := make([]*logentry.Entry, 0, total)
	for _, r := range results {
		if r.err != nil {
			a.logger.Debug("Skipping log file", "name", r.name, "error", r.err)
			continue
		}
		entries = append(entries, r.entries...)
	}
	return entries
}
