// ABOUTME: CLI command showing sync engine status.
// ABOUTME: Reports sync state, last sync time, provider, and permissions.
package main

import (
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	healthsync "github.com/SG-Repo2/mylera-sub000/internal/sync"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long: `Show current sync status including:
- Sync state and last sync time
- The configured provider and its availability
- Health data permission state`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st := engine.Orchestrator.State()

		fmt.Printf("User:      %s\n", cfg.UserID)
		fmt.Printf("Provider:  %s", engine.Provider.Platform())
		if engine.Provider.Available(ctx) {
			color.Green(" (available)")
		} else {
			color.Yellow(" (unavailable)")
		}

		switch st.Status {
		case healthsync.StatusSuccess:
			color.Green("Sync:      %s", st.Status)
		case healthsync.StatusError:
			color.Red("Sync:      %s", st.Status)
			fmt.Printf("           %s\n", st.LastError)
		default:
			fmt.Printf("Sync:      %s\n", st.Status)
		}

		last := engine.Provider.LastSyncTime()
		if last.IsZero() {
			fmt.Println("Last sync: never")
		} else {
			fmt.Printf("Last sync: %s\n", last.Format(time.RFC3339))
		}

		if err := engine.Provider.InitializePermissions(ctx, cfg.UserID); err != nil {
			return fmt.Errorf("initialize permissions: %w", err)
		}
		state, err := engine.Provider.PermissionManager().Status(ctx)
		if err != nil {
			color.Yellow("Permissions: check failed: %v", err)
			return nil
		}
		switch state.Status {
		case models.PermissionGranted:
			color.Green("Permissions: granted")
		case models.PermissionDenied:
			color.Red("Permissions: denied")
		default:
			color.Yellow("Permissions: %s", state.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
