package main

import (
	"context"
	"os/signal"
	"syscall"

	"jsonlogs/internal/config"
	"jsonlogs/internal/logging"
	"jsonlogs/internal/mcp"

	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		transport string
		addr      string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Starts the MCP server over the configured log directory.

Transports:
  - stdio: JSON-RPC over stdin/stdout (default, for local assistants)
  - http:  streamable HTTP at http://<addr>/mcp
  - sse:   server-sent events at http://<addr>/sse

Logs are written to stderr; stdout belongs to the stdio transport.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("transport") {
					c.Transport = transport
				}
				if cmd.Flags().Changed("addr") {
					c.HTTPAddr = addr
				}
				if cmd.Flags().Changed("watch") {
					c.Watch = watch
				}
			})
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LoggerOptions())
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", config.TransportStdio, "Transport: stdio, http or sse")
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address for the http and sse transports")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh the file list when the log directory changes")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, logger *logging.AppLogger) error {
	server := mcp.NewServer(cfg, logger)
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Error("Error stopping MCP server", "error", err)
		}
	}()

	return server.Start(ctx)
}
