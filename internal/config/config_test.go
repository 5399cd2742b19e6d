package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "investmcp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
invest:
  token: t.file-token
  account_id: acc-123
  mode: production
logging:
  level: debug
limits:
  requests_per_minute: 120
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Invest.Token != "t.file-token" {
		t.Errorf("Token = %q, want t.file-token", cfg.Invest.Token)
	}
	if cfg.Invest.Mode != ModeProduction {
		t.Errorf("Mode = %q, want production", cfg.Invest.Mode)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Limits.RequestsPerMinute != 120 {
		t.Errorf("RequestsPerMinute = %d, want 120", cfg.Limits.RequestsPerMinute)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
invest:
  token: t.token
  account_id: acc-123
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Invest.Mode != ModeSandbox {
		t.Errorf("default Mode = %q, want sandbox", cfg.Invest.Mode)
	}
	if cfg.Invest.AppName != DefaultAppName {
		t.Errorf("default AppName = %q, want %q", cfg.Invest.AppName, DefaultAppName)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default logging = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadMissingFileEnvOnly(t *testing.T) {
	t.Setenv("INVEST_TOKEN", "t.env-token")
	t.Setenv("INVEST_ACCOUNT_ID", "env-acc")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load with env-only config returned error: %v", err)
	}
	if cfg.Invest.Token != "t.env-token" {
		t.Errorf("Token = %q, want t.env-token", cfg.Invest.Token)
	}
	if cfg.Invest.AccountID != "env-acc" {
		t.Errorf("AccountID = %q, want env-acc", cfg.Invest.AccountID)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
invest:
  token: t.file-token
  account_id: file-acc
  mode: sandbox
`)
	t.Setenv("INVEST_TOKEN", "t.env-token")
	t.Setenv("INVEST_MODE", "production")
	t.Setenv("INVEST_REQUESTS_PER_MINUTE", "60")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Invest.Token != "t.env-token" {
		t.Errorf("Token = %q, env should win over file", cfg.Invest.Token)
	}
	if cfg.Invest.AccountID != "file-acc" {
		t.Errorf("AccountID = %q, want file value when env is unset", cfg.Invest.AccountID)
	}
	if cfg.Invest.Mode != ModeProduction {
		t.Errorf("Mode = %q, env should win over file", cfg.Invest.Mode)
	}
	if cfg.Limits.RequestsPerMinute != 60 {
		t.Errorf("RequestsPerMinute = %d, want 60 from env", cfg.Limits.RequestsPerMinute)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing token", "invest:\n  account_id: acc-123\n"},
		{"missing account", "invest:\n  token: t.token\n"},
		{"bad mode", "invest:\n  token: t.token\n  account_id: acc-123\n  mode: staging\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("Load should reject invalid config")
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invest: [not a mapping")); err == nil {
		t.Error("Load should reject malformed yaml")
	}
}
