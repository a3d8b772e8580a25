package config

import (
	"testing"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "DATA_FILE", "ADMIN_KEY_HASH", "ADMIN_EMAILS",
		"ACCOUNT_SERVICE_URL", "SAVE_INTERVAL", "SESSION_SWEEP_INTERVAL",
		"SESSION_MAX_AGE_HOURS", "AUTH_RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadServerConfig()

	if cfg.Environment != EnvDevelopment {
		t.Errorf("expected development environment, got %s", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.DataFile != "data/keygate-state.json" {
		t.Errorf("unexpected data file %s", cfg.DataFile)
	}
	if cfg.SaveIntervalSeconds != 60 {
		t.Errorf("expected save interval 60, got %d", cfg.SaveIntervalSeconds)
	}
	if cfg.SweepIntervalSeconds != 3600 {
		t.Errorf("expected sweep interval 3600, got %d", cfg.SweepIntervalSeconds)
	}
	if cfg.SessionMaxAgeHours != 24 {
		t.Errorf("expected session max age 24, got %d", cfg.SessionMaxAgeHours)
	}
}

func TestLoadServerConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_FILE", "/var/lib/keygate/state.json")
	t.Setenv("ADMIN_EMAILS", "ops@example.com, Admin@Example.com ,")
	t.Setenv("ACCOUNT_SERVICE_URL", "https://accounts.example.com/")
	t.Setenv("SAVE_INTERVAL", "5")

	cfg := LoadServerConfig()

	if cfg.Environment != EnvProduction {
		t.Errorf("expected production, got %s", cfg.Environment)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if len(cfg.AdminEmails) != 2 {
		t.Fatalf("expected 2 admin emails, got %v", cfg.AdminEmails)
	}
	if cfg.AccountServiceURL != "https://accounts.example.com" {
		t.Errorf("trailing slash not trimmed: %s", cfg.AccountServiceURL)
	}
	if cfg.SaveIntervalSeconds != 5 {
		t.Errorf("expected save interval 5, got %d", cfg.SaveIntervalSeconds)
	}
}

func TestLoadServerConfig_InvalidValues(t *testing.T) {
	t.Setenv("ENV", "sandbox")
	t.Setenv("PORT", "notaport")
	t.Setenv("SAVE_INTERVAL", "-3")

	cfg := LoadServerConfig()

	if cfg.Environment != EnvDevelopment {
		t.Errorf("invalid ENV should fall back to development, got %s", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("invalid PORT should fall back to 8080, got %d", cfg.Port)
	}
	if cfg.SaveIntervalSeconds != 60 {
		t.Errorf("negative SAVE_INTERVAL should fall back to 60, got %d", cfg.SaveIntervalSeconds)
	}
}

func TestIsAdminEmail(t *testing.T) {
	cfg := ServerConfig{AdminEmails: []string{"ops@example.com"}}

	if !cfg.IsAdminEmail("OPS@example.com") {
		t.Error("admin email match should be case-insensitive")
	}
	if cfg.IsAdminEmail("other@example.com") {
		t.Error("unexpected admin match")
	}
	if cfg.IsAdminEmail("") {
		t.Error("empty email must not match")
	}
}
