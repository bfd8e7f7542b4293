// Package metrics holds the Prometheus collectors of the MCP server.
//
// Each Metrics value owns its own registry, so several servers (or tests) in
// one process never collide on registration. The collectors are exposed over
// HTTP by the network transports at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jsonlogs"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var histogramBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Metrics groups the server collectors.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	resourceReads *prometheus.CounterVec
	catalogFiles  prometheus.Gauge
	refreshes     prometheus.Counter
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Count of MCP tool invocations",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Latency distribution of MCP tool handlers",
			Buckets:   histogramBuckets,
		}, []string{"tool"}),
		resourceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "resource_reads_total",
			Help:      "Count of logs:// resource reads",
		}, []string{"outcome"}),
		catalogFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "files",
			Help:      "Number of log files currently exposed",
		}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "refreshes_total",
			Help:      "Count of log directory rescans triggered by the watcher",
		}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.resourceReads,
		m.catalogFiles,
		m.refreshes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordToolCall counts one tool invocation and observes its latency.
func (m *Metrics) RecordToolCall(tool string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	m.toolCalls.With(prometheus.Labels{"tool": tool, "outcome": outcome}).Inc()
	m.toolDuration.With(prometheus.Labels{"tool": tool}).Observe(duration.Seconds())
}

// RecordResourceRead counts one resource read.
func (m *Metrics) RecordResourceRead(failed bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	m.resourceReads.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// SetCatalogFiles records the current number of exposed files.
func (m *Metrics) SetCatalogFiles(n int) {
	if m == nil {
		return
	}
	m.catalogFiles.Set(float64(n))
}

// IncRefreshes counts one watcher-driven rescan.
func (m *Metrics) IncRefreshes() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}
