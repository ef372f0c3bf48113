// ABOUTME: CLI command for inspecting and requesting health permissions.
// ABOUTME: Shows cached state, expiry, and supports forcing a re-request.
package main

import (
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var permissionsRequest bool

var permissionsCmd = &cobra.Command{
	Use:     "permissions",
	Aliases: []string{"perms"},
	Short:   "Show health data permissions",
	Long: `Show the current health data permission state for the configured user.

Permission checks are cached for 24 hours; within that window the
platform is not consulted again. Use --request to prompt the platform
for access regardless of the cached state.

EXAMPLES:

  mylera permissions             # Show cached/checked state
  mylera permissions --request   # Re-request access from the platform`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := engine.Provider.InitializePermissions(ctx, cfg.UserID); err != nil {
			return fmt.Errorf("initialize permissions: %w", err)
		}
		mgr := engine.Provider.PermissionManager()

		if permissionsRequest {
			status, err := mgr.Request(ctx)
			if err != nil {
				return fmt.Errorf("request permissions: %w", err)
			}
			if status == models.PermissionGranted {
				color.Green("✓ Permissions granted")
			} else {
				color.Red("✗ Permissions %s", status)
			}
			return nil
		}

		state, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("check permissions: %w", err)
		}

		switch state.Status {
		case models.PermissionGranted:
			color.Green("✓ Permissions granted")
		case models.PermissionDenied:
			color.Red("✗ Permissions denied")
		default:
			color.Yellow("⚠ Permissions %s", state.Status)
		}
		if !state.LastChecked.IsZero() {
			fmt.Printf("  Checked: %s\n", state.LastChecked.Format(time.RFC3339))
			fmt.Printf("  Expires: %s\n", state.LastChecked.Add(models.PermissionTTL).Format(time.RFC3339))
		}
		for _, denied := range state.DeniedPermissions {
			fmt.Printf("  Denied:  %s\n", denied)
		}
		return nil
	},
}

func init() {
	permissionsCmd.Flags().BoolVar(&permissionsRequest, "request", false, "re-request access from the platform")
	rootCmd.AddCommand(permissionsCmd)
}
