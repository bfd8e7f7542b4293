package analyzer

import (
	"context"
	"sort"
	"strings"
	"time"

	"jsonlogs/internal/logentry"
)

// QueryFilter selects entries for Query. Zero-valued fields do not filter.
type QueryFilter struct {
	// Files restricts the search; nil means every catalogued file.
	Files []string

	// Level matches case-insensitively.
	Level string

	// Module and Function match exactly.
	Module   string
	Function string

	// MessageContains is a case-insensitive substring of the message.
	MessageContains string

	// StartTime and EndTime are inclusive ISO-8601 bounds. Unparseable
	// values are ignored.
	StartTime string
	EndTime   string

	// Limit caps the result size. Nil means DefaultQueryLimit; zero or a
	// negative value yields no entries.
	Limit *int
}

// matcher is a QueryFilter with its bounds parsed once.
type matcher struct {
	level    string
	module   string
	function string
	contains string
	start    *time.Time
	end      *time.Time
}

func newMatcher(f QueryFilter) matcher {
	return matcher{
		level:    f.Level,
		module:   f.Module,
		function: f.Function,
		contains: strings.ToLower(f.MessageContains),
		start:    parseBound(f.StartTime),
		end:      parseBound(f.EndTime),
	}
}

func parseBound(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, _, err := logentry.ParseTimestamp(s)
	if err != nil {
		return nil
	}
	return &t
}

// match reports whether e satisfies every predicate of m.
func (m matcher) match(e *logentry.Entry) bool {
	if m.level != "" && !strings.EqualFold(e.Level, m.level) {
		return false
	}
	if m.module != "" && e.Module != m.module {
		return false
	}
	if m.function != "" && e.Function != m.function {
		return false
	}
	if m.contains != "" && !strings.Contains(strings.ToLower(e.Message), m.contains) {
		return false
	}
	if e.HasTime() {
		if m.start != nil && e.Time().Before(*m.start) {
			return false
		}
		if m.end != nil && e.Time().After(*m.end) {
			return false
		}
	}
	return true
}

// Query returns the entries matching f across the selected files, newest
// first, truncated to the effective limit. Files that fail to resolve or read
// are skipped.
func (a *Analyzer) Query(ctx context.Context, f QueryFilter) ([]*logentry.Entry, error) {
	defer a.logger.LogPerformance("query", time.Now())

	results, err := a.readFiles(ctx, a.selectFiles(f.Files))
	if err != nil {
		return nil, err
	}

	m := newMatcher(f)
	matched := make([]*logentry.Entry, 0)
	for _, e := range a.collect(results) {
		if m.match(e) {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Time().After(matched[j].Time())
	})

	limit := a.effectiveLimit(f.Limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (a *Analyzer) effectiveLimit(requested *int) int {
	limit := DefaultQueryLimit
	if requested != nil {
		limit = max(*requested, 0)
	}
	if limit > a.opts.MaxQueryLimit {
		a.logger.Debug("Clamping query limit", "requested", limit, "max", a.opts.MaxQueryLimit)
		limit = a.opts.MaxQueryLimit
	}
	return limit
}
