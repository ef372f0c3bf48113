// ABOUTME: Tests for mylera configuration management.
// ABOUTME: Covers load, save, env overrides, defaults, and path expansion.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/scoring"
)

func setConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestGetPlatformDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetPlatform(); got != "local" {
		t.Errorf("GetPlatform() = %q, want %q", got, "local")
	}
}

func TestGetPlatformExplicit(t *testing.T) {
	cfg := &Config{Platform: "healthkit"}
	if got := cfg.GetPlatform(); got != "healthkit" {
		t.Errorf("GetPlatform() = %q, want %q", got, "healthkit")
	}
}

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDataDir(); got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/mylera-test"}
	if got := cfg.GetDataDir(); got != "/tmp/mylera-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/mylera-test")
	}
}

func TestGetSampleFileDefault(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/mylera-test"}
	want := filepath.Join("/tmp/mylera-test", "samples.json")
	if got := cfg.GetSampleFile(); got != want {
		t.Errorf("GetSampleFile() = %q, want %q", got, want)
	}
}

func TestExpandPathEmpty(t *testing.T) {
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, want %q", got, "")
	}
}

func TestExpandPathAbsolute(t *testing.T) {
	if got := ExpandPath("/tmp/foo"); got != "/tmp/foo" {
		t.Errorf("ExpandPath(\"/tmp/foo\") = %q, want %q", got, "/tmp/foo")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := ExpandPath("~"); got != home {
		t.Errorf("ExpandPath(\"~\") = %q, want %q", got, home)
	}
}

func TestExpandPathTildeSlash(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := ExpandPath("~/data/mylera")
	want := filepath.Join(home, "data/mylera")
	if got != want {
		t.Errorf("ExpandPath(\"~/data/mylera\") = %q, want %q", got, want)
	}
}

func TestScoringConfigDefaults(t *testing.T) {
	cfg := &Config{}
	rules := cfg.ScoringConfig()
	if rules[models.MetricSteps].Goal != scoring.DefaultConfig()[models.MetricSteps].Goal {
		t.Error("expected default steps rule when no override is configured")
	}
}

func TestScoringConfigOverride(t *testing.T) {
	cfg := &Config{
		Scoring: map[models.MetricType]scoring.Rule{
			models.MetricSteps: {Goal: 5000, Increment: 50, MaxPoints: 100},
		},
	}
	rules := cfg.ScoringConfig()
	if rules[models.MetricSteps].Goal != 5000 {
		t.Errorf("steps goal = %v, want 5000", rules[models.MetricSteps].Goal)
	}
	// Other types keep defaults.
	if rules[models.MetricCalories] != scoring.DefaultConfig()[models.MetricCalories] {
		t.Error("calories rule should keep the default")
	}
}

func TestScoringConfigIgnoresUnknownType(t *testing.T) {
	cfg := &Config{
		Scoring: map[models.MetricType]scoring.Rule{
			"blood_pressure": {Goal: 120, Increment: 1, MaxPoints: 10},
		},
	}
	rules := cfg.ScoringConfig()
	if _, ok := rules["blood_pressure"]; ok {
		t.Error("unknown metric type should be dropped from scoring rules")
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	setConfigHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.UserID != "" || cfg.Platform != "" || cfg.DataDir != "" {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	setConfigHome(t)

	cfg := &Config{
		UserID:   "user-1",
		Platform: "local",
		DataDir:  "/tmp/mylera-data",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.UserID != "user-1" {
		t.Errorf("UserID mismatch: got %q, want %q", loaded.UserID, "user-1")
	}
	if loaded.DataDir != "/tmp/mylera-data" {
		t.Errorf("DataDir mismatch: got %q, want %q", loaded.DataDir, "/tmp/mylera-data")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setConfigHome(t)

	cfg := &Config{UserID: "file-user", DataDir: "/tmp/from-file"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	t.Setenv("MYLERA_USER_ID", "env-user")
	t.Setenv("MYLERA_DATA_DIR", "/tmp/from-env")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.UserID != "env-user" {
		t.Errorf("UserID = %q, want env override %q", loaded.UserID, "env-user")
	}
	if loaded.DataDir != "/tmp/from-env" {
		t.Errorf("DataDir = %q, want env override %q", loaded.DataDir, "/tmp/from-env")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{UserID: "user-1"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "mylera")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := setConfigHome(t)

	configDir := filepath.Join(tmpDir, "mylera")
	os.MkdirAll(configDir, 0755)
	os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600)

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid JSON config")
	}
}

func TestEnsureDeviceID(t *testing.T) {
	setConfigHome(t)

	cfg := &Config{UserID: "user-1"}
	id, err := cfg.EnsureDeviceID()
	if err != nil {
		t.Fatalf("EnsureDeviceID() failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated device id")
	}

	// Stable across calls and persisted.
	again, err := cfg.EnsureDeviceID()
	if err != nil {
		t.Fatalf("EnsureDeviceID() second call failed: %v", err)
	}
	if again != id {
		t.Errorf("device id changed: %q then %q", id, again)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.DeviceID != id {
		t.Errorf("persisted device id = %q, want %q", loaded.DeviceID, id)
	}
}

func TestOpenStoreRequiresUser(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}
	if _, err := cfg.OpenStore(); err == nil {
		t.Error("expected error when no user is configured")
	}
}

func TestOpenStoreCreatesDatabase(t *testing.T) {
	dataDir := t.TempDir()
	cfg := &Config{UserID: "user-1", DataDir: dataDir}

	db, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dataDir, "mylera.db")); os.IsNotExist(err) {
		t.Error("expected mylera.db to be created")
	}
}

func TestOpenProviderUnknownPlatform(t *testing.T) {
	cfg := &Config{Platform: "healthkit"}
	if _, err := cfg.OpenProvider(nil, nil); err == nil {
		t.Error("expected error for unknown platform")
	}
}
