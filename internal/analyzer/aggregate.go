package analyzer

import (
	"context"
	"math"
	"time"

	"jsonlogs/internal/logentry"
)

// Group-by dimensions with dedicated handling. Any other value is looked up
// as a field name on each entry.
const (
	GroupByLevel    = "level"
	GroupByModule   = "module"
	GroupByFunction = "function"
	GroupByHour     = "hour"
)

// UnknownGroup is the key for entries lacking the grouped field.
const UnknownGroup = "UNKNOWN"

// GroupStats summarizes one group of an aggregation.
type GroupStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	FirstSeen  *string `json:"first_seen"`
	LastSeen   *string `json:"last_seen"`
}

// AggregationResult is the outcome of Aggregate.
type AggregationResult struct {
	GroupBy      string                 `json:"group_by"`
	TotalEntries int                    `json:"total_entries"`
	Groups       map[string]*GroupStats `json:"groups"`
}

// timeBounds tracks the earliest and latest timestamps observed. Until the
// first timestamped entry is observed it reports no bounds at all.
type timeBounds struct {
	seen     bool
	min, max time.Time
	minNaive bool
	maxNaive bool
}

func (b *timeBounds) observe(e *logentry.Entry) {
	if !e.HasTime() {
		return
	}
	t := e.Time()
	if !b.seen || t.Before(b.min) {
		b.min, b.minNaive = t, e.Naive()
	}
	if !b.seen || t.After(b.max) {
		b.max, b.maxNaive = t, e.Naive()
	}
	b.seen = true
}

func (b *timeBounds) earliest() *string {
	if !b.seen {
		return nil
	}
	s := logentry.FormatTimestamp(b.min, b.minNaive)
	return &s
}

func (b *timeBounds) latest() *string {
	if !b.seen {
		return nil
	}
	s := logentry.FormatTimestamp(b.max, b.maxNaive)
	return &s
}

func (b *timeBounds) spanHours() *float64 {
	if !b.seen {
		return nil
	}
	h := round2(b.max.Sub(b.min).Hours())
	return &h
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// groupKey returns the key of e under the groupBy dimension.
func groupKey(e *logentry.Entry, groupBy string) string {
	switch groupBy {
	case GroupByLevel:
		return e.Level
	case GroupByModule:
		return e.Module
	case GroupByFunction:
		return e.Function
	case GroupByHour:
		if !e.HasTime() {
			return UnknownGroup
		}
		return logentry.HourBucket(e.Time())
	}

	if v, ok := e.Field(groupBy); ok {
		return v
	}
	return UnknownGroup
}

// Aggregate groups the entries of the selected files by groupBy, which
// defaults to level, and reports per-group counts, percentages and time
// bounds. Files that fail to resolve or read are skipped.
func (a *Analyzer) Aggregate(ctx context.Context, files []string, groupBy string) (*AggregationResult, error) {
	defer a.logger.LogPerformance("aggregate", time.Now())

	if groupBy == "" {
		groupBy = GroupByLevel
	}

	results, err := a.readFiles(ctx, a.selectFiles(files))
	if err != nil {
		return nil, err
	}
	entries := a.collect(results)

	groups := make(map[string]*GroupStats)
	bounds := make(map[string]*timeBounds)
	for _, e := range entries {
		key := groupKey(e, groupBy)
		g, ok := groups[key]
		if !ok {
			g = &GroupStats{}
			groups[key] = g
			bounds[key] = &timeBounds{}
		}
		g.Count++
		bounds[key].observe(e)
	}

	total := len(entries)
	for key, g := range groups {
		g.Percentage = round2(float64(g.Count) / float64(total) * 100)
		g.FirstSeen = bounds[key].earliest()
		g.LastSeen = bounds[key].latest()
	}

	return &AggregationResult{
		GroupBy:      groupBy,
		TotalEntries: total,
		Groups:       groups,
	}, nil
}
