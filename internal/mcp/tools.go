package mcp

import (
	"context"
	"encoding/json"
	"time"

	"jsonlogs/internal/analyzer"
	"jsonlogs/internal/logentry"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names exposed to clients.
const (
	ToolQueryLogs     = "query_logs"
	ToolAggregateLogs = "aggregate_logs"
	ToolGetLogStats   = "get_log_stats"
	ToolListLogFiles  = "list_log_files"
)

const serverInstructions = `JSON log analysis over the files of one log directory.

1. Use 'list_log_files' to see which files exist (newest first).
2. Use 'query_logs' to filter entries by level, module, function, message text and time window.
3. Use 'aggregate_logs' to count entries per level, module, function, hour or any other field.
4. Use 'get_log_stats' for totals, distinct modules and the covered time range.

Every tool accepts an optional 'files' list; omit it to cover all files.
Timestamps are ISO 8601; values without an offset are treated as UTC.
Each file is also readable as the resource logs://<file name>.`

var filesProperty = mcp.WithArray("files",
	mcp.Description("Log files to analyze (default: all files)"),
	mcp.Items(map[string]any{"type": "string"}),
)

func queryLogsTool() mcp.Tool {
	return mcp.NewTool(ToolQueryLogs,
		mcp.WithDescription("Search and filter log entries across log files"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithArray("files",
			mcp.Description("Log files to search (default: all files)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("level",
			mcp.Description("Filter by log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)"),
		),
		mcp.WithString("module", mcp.Description("Filter by module name")),
		mcp.WithString("function", mcp.Description("Filter by function name")),
		mcp.WithString("message_contains",
			mcp.Description("Filter by message content (case-insensitive)"),
		),
		mcp.WithString("start_time", mcp.Description("Start time filter (ISO format)")),
		mcp.WithString("end_time", mcp.Description("End time filter (ISO format)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results"),
			mcp.DefaultNumber(analyzer.DefaultQueryLimit),
		),
	)
}

func aggregateLogsTool() mcp.Tool {
	return mcp.NewTool(ToolAggregateLogs,
		mcp.WithDescription("Aggregate log data by specified criteria"),
		mcp.WithReadOnlyHintAnnotation(true),
		filesProperty,
		mcp.WithString("group_by",
			mcp.Description("Field to group by"),
			mcp.Enum(analyzer.GroupByLevel, analyzer.GroupByModule, analyzer.GroupByFunction, analyzer.GroupByHour),
			mcp.DefaultString(analyzer.GroupByLevel),
		),
	)
}

func getLogStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetLogStats,
		mcp.WithDescription("Get overall statistics for log files"),
		mcp.WithReadOnlyHintAnnotation(true),
		filesProperty,
	)
}

func listLogFilesTool() mcp.Tool {
	return mcp.NewTool(ToolListLogFiles,
		mcp.WithDescription("List available log files with metadata"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(queryLogsTool(), s.instrument(ToolQueryLogs, s.handleQueryLogs))
	s.mcpServer.AddTool(aggregateLogsTool(), s.instrument(ToolAggregateLogs, s.handleAggregateLogs))
	s.mcpServer.AddTool(getLogStatsTool(), s.instrument(ToolGetLogStats, s.handleGetLogStats))
	s.mcpServer.AddTool(listLogFilesTool(), s.instrument(ToolListLogFiles, s.handleListLogFiles))
	s.logger.Debug("Registered tools", "count", 4)
}

// instrument records the outcome and latency of every call to next.
func (s *Server) instrument(tool string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, request)
		failed := err != nil || (result != nil && result.IsError)
		s.metrics.RecordToolCall(tool, failed, time.Since(start))
		return result, err
	}
}

// filesArg returns nil when the argument is absent so the engine selects every
// catalogued file; an explicit empty list selects none.
func filesArg(request mcp.CallToolRequest) []string {
	return request.GetStringSlice("files", nil)
}

func (s *Server) handleQueryLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := analyzer.QueryFilter{
		Files:           filesArg(request),
		Level:           request.GetString("level", ""),
		Module:          request.GetString("module", ""),
		Function:        request.GetString("function", ""),
		MessageContains: request.GetString("message_contains", ""),
		StartTime:       request.GetString("start_time", ""),
		EndTime:         request.GetString("end_time", ""),
	}
	limit := request.GetInt("limit", analyzer.DefaultQueryLimit)
	filter.Limit = &limit
	s.logger.DebugObject("query_logs filter", filter)

	entries, err := s.analyzer.Query(ctx, filter)
	if err != nil {
		return errorResult(err), nil
	}
	if entries == nil {
		entries = []*logentry.Entry{}
	}
	return jsonResult(entries), nil
}

func (s *Server) handleAggregateLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupBy := request.GetString("group_by", analyzer.GroupByLevel)

	result, err := s.analyzer.Aggregate(ctx, filesArg(request), groupBy)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleGetLogStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.analyzer.Stats(ctx, filesArg(request))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(stats), nil
}

func (s *Server) handleListLogFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.analyzer.ListFiles()
	if err != nil {
		return errorResult(err), nil
	}
	s.syncResources(files)
	return jsonResult(files), nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(string(data))
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}
