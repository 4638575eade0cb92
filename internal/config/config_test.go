package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danhigham/cometcharm/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("COMETCHAT_APP_ID", "")
	t.Setenv("COMETCHAT_AUTH_KEY", "")
	t.Setenv("COMETCHAT_REGION", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`defaults:
  app_id: "12345abc"
  auth_key: "abcdef0123456789"
  region: us
log_level: debug
busy_reject_delay: 500ms
init_timeout: 10s
api:
  base_url: http://localhost:8080/v3
sample_users:
  - uid: dana
    name: Dana
`)
	if err := os.WriteFile(cfgPath, content, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Defaults.AppID != "12345abc" {
		t.Errorf("AppID = %q, want 12345abc", cfg.Defaults.AppID)
	}
	if cfg.Defaults.AuthKey != "abcdef0123456789" {
		t.Errorf("AuthKey = %q, want %q", cfg.Defaults.AuthKey, "abcdef0123456789")
	}
	if cfg.Defaults.Region != "us" {
		t.Errorf("Region = %q, want us", cfg.Defaults.Region)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.BusyRejectDelay != 500*time.Millisecond {
		t.Errorf("BusyRejectDelay = %v, want 500ms", cfg.BusyRejectDelay)
	}
	if cfg.InitTimeout != 10*time.Second {
		t.Errorf("InitTimeout = %v, want 10s", cfg.InitTimeout)
	}
	if cfg.API.BaseURL != "http://localhost:8080/v3" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if len(cfg.SampleUsers) != 1 || cfg.SampleUsers[0].UID != "dana" {
		t.Errorf("SampleUsers = %+v, want [dana]", cfg.SampleUsers)
	}
}

func TestLoadConfig_FileNotFoundUsesDefaults(t *testing.T) {
	t.Setenv("COMETCHAT_APP_ID", "")
	t.Setenv("COMETCHAT_AUTH_KEY", "")
	t.Setenv("COMETCHAT_REGION", "")

	cfg, err := config.Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.BusyRejectDelay != 2*time.Second {
		t.Errorf("BusyRejectDelay = %v, want 2s", cfg.BusyRejectDelay)
	}
	if cfg.InitTimeout != 0 {
		t.Errorf("InitTimeout = %v, want 0", cfg.InitTimeout)
	}
	if len(cfg.SampleUsers) != 3 {
		t.Errorf("SampleUsers = %d, want 3", len(cfg.SampleUsers))
	}
	if cfg.Defaults.AppID != "" || cfg.Defaults.AuthKey != "" || cfg.Defaults.Region != "" {
		t.Errorf("Defaults = %+v, want empty", cfg.Defaults)
	}
}

func TestLoadConfig_EnvDefaults(t *testing.T) {
	t.Setenv("COMETCHAT_APP_ID", "env-app")
	t.Setenv("COMETCHAT_AUTH_KEY", "env-key")
	t.Setenv("COMETCHAT_REGION", "eu")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("defaults:\n  region: in\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Defaults.AppID != "env-app" {
		t.Errorf("AppID = %q, want env-app", cfg.Defaults.AppID)
	}
	if cfg.Defaults.AuthKey != "env-key" {
		t.Errorf("AuthKey = %q, want env-key", cfg.Defaults.AuthKey)
	}
	// The file wins over the environment.
	if cfg.Defaults.Region != "in" {
		t.Errorf("Region = %q, want in", cfg.Defaults.Region)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("defaults: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(cfgPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestConfigDir(t *testing.T) {
	dir := config.Dir()
	if dir == "" {
		t.Error("Dir() returned empty string")
	}
	if filepath.Base(config.Path()) != "config.yaml" {
		t.Errorf("Path() = %q", config.Path())
	}
}
