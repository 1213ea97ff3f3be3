package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	guardmcp "github.com/nicolaschoi7042/itNswinventory-sub001/internal/mcp"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  check_assignment  check a proposed assignment for conflicts
  availability      whether an asset can accept a new assignment
  eligibility       whether an employee may receive an asset
  auto_resolve      attempt the automated resolution of one conflict

If the store is unavailable at startup the server still starts;
individual tool calls will return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			var src store.Source
			opened, err := newSource(cmd.Context(), logger)
			if err != nil {
				logger.Error("mcp: failed to open store; tool calls will fail", "error", err)
			} else {
				src = opened
				defer func() { _ = src.Close() }()
			}

			srv := guardmcp.NewServer(src, newEngine(src, logger), logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: assetguard MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
