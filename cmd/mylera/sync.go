// ABOUTME: CLI command for running a synchronization pass.
// ABOUTME: Prints the reconciled daily score or the classified failure.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync health data now",
	Long: `Run one synchronization pass:

  1. Bring the health provider up (with retries).
  2. Verify health data permissions (cached for 24 hours).
  3. Reconcile provider data with the metrics store.
  4. Write scored metrics back in a batch.

Fresh, complete stored metrics skip the provider fetch entirely, so
repeated syncs are cheap.

EXAMPLES:

  mylera sync        # Sync the configured user's metrics for today
  mylera sync -v     # Same, with debug logging`,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := engine.Orchestrator.Sync(cmd.Context())
		st := engine.Orchestrator.State()
		if err != nil {
			color.Red("✗ Sync failed: %s", st.LastError)
			return fmt.Errorf("sync: %w", err)
		}

		color.Green("✓ Sync complete")
		fmt.Printf("  Daily score: %d\n", st.DailyScore)
		if st.StreakDays > 0 {
			fmt.Printf("  Streak: %d day(s)\n", st.StreakDays)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
