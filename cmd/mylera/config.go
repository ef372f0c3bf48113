// ABOUTME: CLI commands for reading and writing mylera configuration.
// ABOUTME: Supports show and set for the file-backed settings.
package main

import (
	"fmt"

	"github.com/SG-Repo2/mylera-sub000/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mylera configuration",
	Long: `Read and write the mylera config file.

SETTINGS:

  user_id      Account the sync engine operates for (required)
  platform     Health provider: local (default)
  data_dir     Root directory for the database and permission cache
  sample_file  JSON sample file for the local provider

Environment variables (MYLERA_USER_ID, MYLERA_PLATFORM, MYLERA_DATA_DIR,
MYLERA_SAMPLE_FILE) override file values at runtime but are not written
back by 'config set'.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file: %s\n\n", config.GetConfigPath())
		fmt.Printf("user_id:     %s\n", orUnset(cfg.UserID))
		fmt.Printf("platform:    %s\n", cfg.GetPlatform())
		fmt.Printf("data_dir:    %s\n", cfg.GetDataDir())
		fmt.Printf("sample_file: %s\n", cfg.GetSampleFile())
		if cfg.DeviceID != "" {
			fmt.Printf("device_id:   %s\n", cfg.DeviceID)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		switch key {
		case "user_id":
			cfg.UserID = value
		case "platform":
			cfg.Platform = value
		case "data_dir":
			cfg.DataDir = value
		case "sample_file":
			cfg.SampleFile = value
		default:
			return fmt.Errorf("unknown config key: %q (expected user_id, platform, data_dir, or sample_file)", key)
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		color.Green("✓ Set %s = %s", key, value)
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
