// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server over the wired sync engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SG-Repo2/mylera-sub000/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant
integration. The server communicates via stdin/stdout.

CONFIGURATION:

  {
    "mcpServers": {
      "mylera": {
        "command": "mylera",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_today_metrics   Today's metrics with scores and daily total
  sync_now            Trigger a synchronization and report the outcome
  get_sync_status     Current sync state and last error
  check_permissions   Health data permission state

AVAILABLE RESOURCES:

  mylera://today      Today's reconciled metric values
  mylera://scores     Today's per-metric score rows
  mylera://sync       Current sync engine state`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(engine.Store, engine.Orchestrator, engine.Provider, cfg.UserID)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
