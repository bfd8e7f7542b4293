// Package mcp provides the Model Context Protocol (MCP) server for jsonlogs using mcp-go.
//
// The server exposes the log-analysis engine of the analyzer package to AI
// assistants. Every file in the configured log directory whose name matches
// *.log* is analyzable.
//
// # Tools
//
//   - query_logs: filter entries by level, module, function, message text and
//     an inclusive time window; newest first, bounded by limit
//   - aggregate_logs: count entries per level, module, function, hour or any
//     other field, with percentages and first/last seen timestamps
//   - get_log_stats: totals, level histogram, distinct modules and functions,
//     and the covered time range
//   - list_log_files: file descriptors, newest first
//
// Results are indented JSON text. Failures are reported inside the tool result
// as "Error: <message>" rather than as protocol errors.
//
// # Resources
//
// Each catalogued file is registered as logs://<name>, and the template
// logs://{name} covers files that appear between two syncs. Reading a resource
// returns the entries parsed from the first resource_max_lines raw lines.
// Registrations are re-synced when list_log_files runs and, with watch
// enabled, whenever the directory changes.
//
// # Transports
//
// stdio is the default. The streamable HTTP transport serves /mcp and the SSE
// transport serves /sse on http_addr. Both network transports also serve
// Prometheus metrics at /metrics.
//
//	jsonlogs serve --log-dir /var/log/myapp
//	jsonlogs serve --transport http --addr :8000
//
// # Security
//
// File names arriving from clients are resolved through the catalog, so only
// files directly inside the log directory are readable. Paths are checked
// again for containment and symlink escape before opening.
//
// # References
//
// - MCP Specification: https://modelcontextprotocol.io/specification
// - mcp-go Library: https://github.com/mark3labs/mcp-go
package mcp
