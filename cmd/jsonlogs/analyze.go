package main

import (
	"encoding/json"
	"fmt"
	"io"

	"jsonlogs/internal/analyzer"
	"jsonlogs/internal/catalog"
	"jsonlogs/internal/config"
	"jsonlogs/internal/logentry"
	"jsonlogs/internal/logging"

	"github.com/spf13/cobra"
)

// newAnalyzer builds a refreshed catalog and an engine for one-shot commands.
func (o *rootOptions) newAnalyzer(cmd *cobra.Command) (*analyzer.Analyzer, *config.Config, error) {
	cfg, err := o.loadConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewQuietLogger()
	cat := catalog.New(cfg.LogDir, logger)
	if err := cat.Refresh(); err != nil {
		return nil, nil, err
	}
	return analyzer.New(cat, logger, cfg.AnalyzerOptions()), cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// filesFlag returns nil unless --files was given, so that an absent flag
// selects every file.
func filesFlag(cmd *cobra.Command, files []string) []string {
	if !cmd.Flags().Changed("files") {
		return nil
	}
	if files == nil {
		return []string{}
	}
	return files
}

func newFilesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List log files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := root.newAnalyzer(cmd)
			if err != nil {
				return err
			}
			files, err := a.ListFiles()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), files)
		},
	}
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := root.newAnalyzer(cmd)
			if err != nil {
				return err
			}
			stats, err := a.Stats(cmd.Context(), filesFlag(cmd, files))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Log files to analyze (default: all files)")
	return cmd
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	var (
		files  []string
		limit  int
		filter analyzer.QueryFilter
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search and filter log entries",
		Long: `Prints matching entries, newest first.

Examples:
  jsonlogs query --level error --limit 20
  jsonlogs query --module api.http --since 2024-01-15T10:00:00
  jsonlogs query --files app.log,worker.log.1 --contains timeout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := root.newAnalyzer(cmd)
			if err != nil {
				return err
			}
			filter.Files = filesFlag(cmd, files)
			filter.Limit = &limit

			entries, err := a.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []*logentry.Entry{}
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Log files to search (default: all files)")
	cmd.Flags().StringVarP(&filter.Level, "level", "l", "", "Filter by log level (case-insensitive)")
	cmd.Flags().StringVarP(&filter.Module, "module", "m", "", "Filter by module name")
	cmd.Flags().StringVar(&filter.Function, "function", "", "Filter by function name")
	cmd.Flags().StringVarP(&filter.MessageContains, "contains", "c", "", "Filter by message content (case-insensitive)")
	cmd.Flags().StringVar(&filter.StartTime, "since", "", "Start time filter (ISO format, inclusive)")
	cmd.Flags().StringVar(&filter.EndTime, "until", "", "End time filter (ISO format, inclusive)")
	cmd.Flags().IntVarP(&limit, "limit", "n", analyzer.DefaultQueryLimit, "Maximum number of results")
	return cmd
}

func newAggregateCmd(root *rootOptions) *cobra.Command {
	var (
		files   []string
		groupBy string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Count entries per group",
		Long: `Groups entries by level, module, function, hour or any other field name
and prints counts, percentages and first/last seen timestamps per group.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := root.newAnalyzer(cmd)
			if err != nil {
				return err
			}
			result, err := a.Aggregate(cmd.Context(), filesFlag(cmd, files), groupBy)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Log files to analyze (default: all files)")
	cmd.Flags().StringVarP(&groupBy, "group-by", "g", analyzer.GroupByLevel, "Field to group by")
	return cmd
}

func newReadCmd(root *rootOptions) *cobra.Command {
	var maxLines int

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Print the parsed entries of one log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := root.newAnalyzer(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-lines") {
				maxLines = cfg.ResourceMaxLines
			}

			entries, err := a.ReadFile(cmd.Context(), args[0], maxLines)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if entries == nil {
				entries = []*logentry.Entry{}
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVar(&maxLines, "max-lines", 0, "Read at most this many raw lines, 0 for all (default: resource_max_lines)")
	return cmd
}
