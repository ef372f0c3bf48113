// ABOUTME: Root Cobra command for mylera CLI.
// ABOUTME: Handles engine lifecycle via PersistentPre/PostRunE.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SG-Repo2/mylera-sub000/internal/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	engine  *config.Engine
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mylera",
	Short: "Health metrics sync engine",
	Long: `Mylera synchronizes daily health metrics from a platform health
provider, scores them against per-metric goals, and reconciles them with
the metrics store.

WHAT IT TRACKS:

  steps, distance, calories, heart_rate, exercise,
  basal_calories, flights_climbed

Each metric earns points toward a daily score; consecutive scoring days
build a streak, and scores accumulate weekly (resetting each Monday).

QUICK START:

  $ mylera config set user_id user-1    # Pick the account to sync
  $ mylera sync                         # Fetch, score, and reconcile
  $ mylera metrics                      # Show today's values and points
  $ mylera status                       # Sync state and permissions

PERMISSIONS:

  Health data access is checked before every fetch and cached for 24
  hours. Run 'mylera permissions' to inspect or re-request access.

MCP INTEGRATION:

  Run 'mylera mcp' to start the Model Context Protocol server for use
  with MCP-compatible AI assistants:

  {
    "mcpServers": {
      "mylera": { "command": "mylera", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Metrics live in a SQLite database under ~/.local/share/mylera.
  The local provider reads samples.json from the same directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that only touch the config file skip engine wiring.
		switch cmd.Name() {
		case "version", "help", "show", "set":
			return loadConfig()
		}

		if err := loadConfig(); err != nil {
			return err
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}

		var err error
		engine, err = cfg.NewEngine(cmd.Context(), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize engine: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if engine != nil {
			return engine.Close(context.Background())
		}
		return nil
	},
}

func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
