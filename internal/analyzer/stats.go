package analyzer

import (
	"context"
	"sort"
	"time"
)

// TimeRange spans the timestamps of a corpus. All fields are nil when no
// entry carried a timestamp.
type TimeRange struct {
	Earliest  *string  `json:"earliest"`
	Latest    *string  `json:"latest"`
	SpanHours *float64 `json:"span_hours"`
}

// CorpusStats summarizes the selected files.
type CorpusStats struct {
	TotalFiles      int            `json:"total_files"`
	TotalEntries    int            `json:"total_entries"`
	Levels          map[string]int `json:"levels"`
	UniqueModules   []string       `json:"unique_modules"`
	UniqueFunctions int            `json:"unique_functions"`
	TimeRange       TimeRange      `json:"time_range"`
}

// Stats computes corpus-wide totals over the selected files. TotalFiles counts
// the selected files; entries of files that fail to resolve or read are
// excluded from every other figure.
func (a *Analyzer) Stats(ctx context.Context, files []string) (*CorpusStats, error) {
	defer a.logger.LogPerformance("stats", time.Now())

	names := a.selectFiles(files)
	results, err := a.readFiles(ctx, names)
	if err != nil {
		return nil, err
	}

	stats := &CorpusStats{
		TotalFiles:    len(names),
		Levels:        make(map[string]int),
		UniqueModules: []string{},
	}
	modules := make(map[string]struct{})
	functions := make(map[string]struct{})
	var bounds timeBounds

	for _, e := range a.collect(results) {
		stats.TotalEntries++
		stats.Levels[e.Level]++
		modules[e.Module] = struct{}{}
		functions[e.Function] = struct{}{}
		bounds.observe(e)
	}

	for m := range modules {
		stats.UniqueModules = append(stats.UniqueModules, m)
	}
	sort.Strings(stats.UniqueModules)
	stats.UniqueFunctions = len(functions)
	stats.TimeRange = TimeRange{
		Earliest:  bounds.earliest(),
		Latest:    bounds.latest(),
		SpanHours: bounds.spanHours(),
	}

	return stats, nil
}
