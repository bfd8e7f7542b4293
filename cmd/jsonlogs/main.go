// Package main is the entry point for the jsonlogs CLI.
//
// jsonlogs serve runs the MCP server over the configured log directory. The
// remaining commands run one analysis against the same engine and print the
// result as JSON, which is handy for checking what a client would see.
//
// Configuration is resolved in this order, later sources winning: built-in
// defaults, the YAML config file, the JSON_LOGS_DIR environment variable and
// command-line flags.
package main

import (
	"fmt"
	"os"

	"jsonlogs/internal/config"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logDir     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "jsonlogs",
		Short: "Analyze JSON-lines log files over the Model Context Protocol",
		Long: `jsonlogs indexes the *.log* files of one directory, where every line is a
JSON object with timestamp, level, message, module, function and line fields.

It serves query, aggregation and statistics tools to MCP clients, and exposes
each file as a logs://<name> resource.

Run 'jsonlogs serve' to start the MCP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/jsonlogs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.logDir, "log-dir", "d", "", "Log directory (overrides config and "+config.LogDirEnv+")")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newFilesCmd(opts),
		newStatsCmd(opts),
		newQueryCmd(opts),
		newAggregateCmd(opts),
		newReadCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}

// loadConfig resolves the configuration for cmd. Flag overrides are applied
// by the caller through override before validation.
func (o *rootOptions) loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cmd.Flags().Changed("log-dir") {
		cfg.LogDir = o.logDir
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
