// ABOUTME: Mylera configuration: file-backed settings with env overrides.
// ABOUTME: Handles paths, device identity, and scoring goal overrides.

package config

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/scoring"
	"github.com/caarlos0/env/v6"
	"github.com/oklog/ulid/v2"
)

// Config stores mylera sync configuration. Environment variables override
// whatever the config file says.
type Config struct {
	// UserID is the account the sync engine operates on behalf of.
	UserID string `json:"user_id,omitempty" env:"MYLERA_USER_ID"`

	// Platform selects the health provider: "local" (default).
	Platform string `json:"platform,omitempty" env:"MYLERA_PLATFORM"`

	// DataDir is the root directory for the metrics database and the
	// permission cache. Supports ~ expansion. Defaults to the standard
	// XDG data directory.
	DataDir string `json:"data_dir,omitempty" env:"MYLERA_DATA_DIR"`

	// SampleFile is the JSON sample file the local provider reads.
	// Defaults to samples.json under DataDir.
	SampleFile string `json:"sample_file,omitempty" env:"MYLERA_SAMPLE_FILE"`

	// DeviceID identifies this installation. Generated on first use.
	DeviceID string `json:"device_id,omitempty"`

	// Scoring overrides the built-in scoring rules per metric type.
	// Omitted types keep the defaults.
	Scoring map[models.MetricType]scoring.Rule `json:"scoring,omitempty"`
}

// GetPlatform returns the configured platform, defaulting to "local".
func (c *Config) GetPlatform() string {
	if c.Platform == "" {
		return "local"
	}
	return c.Platform
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetSampleFile returns the local provider's sample file path.
func (c *Config) GetSampleFile() string {
	if c.SampleFile == "" {
		return filepath.Join(c.GetDataDir(), "samples.json")
	}
	return ExpandPath(c.SampleFile)
}

// ScoringConfig returns the effective scoring rules: defaults with any
// configured per-metric overrides applied.
func (c *Config) ScoringConfig() scoring.Config {
	rules := scoring.DefaultConfig()
	for mt, rule := range c.Scoring {
		if !models.IsValidMetricType(string(mt)) {
			continue
		}
		rules[mt] = rule
	}
	return rules
}

// EnsureDeviceID generates and persists a device id if none exists yet.
func (c *Config) EnsureDeviceID() (string, error) {
	if c.DeviceID != "" {
		return c.DeviceID, nil
	}
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	c.DeviceID = ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	if err := c.Save(); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return c.DeviceID, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DataDir returns the default data directory following XDG spec.
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, _ := os.UserHomeDir()
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "mylera")
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "mylera", "config.json")
}

// Load reads config from disk, then applies environment overrides. A missing
// file yields defaults, not an error.
func Load() (*Config, error) {
	path := GetConfigPath()
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
