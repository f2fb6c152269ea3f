package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rentwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "alerts_db: /tmp/alerts.db\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.DomainDB != "/tmp/alerts.db" {
		t.Errorf("DomainDB = %q, want alerts_db fallback", cfg.DomainDB)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Timezone)
	}
	if cfg.Checks.MaintenanceDue.LookaheadDays != 14 {
		t.Errorf("maintenance lookahead = %d, want 14", cfg.Checks.MaintenanceDue.LookaheadDays)
	}
	if cfg.Checks.RentalOverdue.Schedule != "every 1h" {
		t.Errorf("rental_overdue schedule = %q, want every 1h", cfg.Checks.RentalOverdue.Schedule)
	}
	if cfg.Retention.ResolvedDays != 30 {
		t.Errorf("retention resolved_days = %d, want 30", cfg.Retention.ResolvedDays)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
alerts_db: alerts.db
domain_db: fleet.db
timezone: Europe/Berlin
checks:
  rental_overdue:
    schedule: every 30m
  lead_stale:
    schedule: daily 11:00
    stale_days: 14
retention:
  schedule: daily 02:00
  resolved_days: 60
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Checks.RentalOverdue.Schedule != "every 30m" {
		t.Errorf("rental_overdue schedule = %q", cfg.Checks.RentalOverdue.Schedule)
	}
	if cfg.Checks.LeadStale.StaleDays != 14 {
		t.Errorf("stale_days = %d, want 14", cfg.Checks.LeadStale.StaleDays)
	}
	if cfg.Retention.ResolvedDays != 60 {
		t.Errorf("resolved_days = %d, want 60", cfg.Retention.ResolvedDays)
	}
	if _, err := cfg.Location(); err != nil {
		t.Errorf("Location returned error: %v", err)
	}
}

func TestLoadConfigInvalidSchedule(t *testing.T) {
	path := writeConfig(t, `
checks:
  payment_pending:
    schedule: "0 9 * * *"
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig succeeded with cron-style schedule, want error")
	}
}

func TestLoadConfigInvalidTimezone(t *testing.T) {
	path := writeConfig(t, "timezone: Mars/Olympus\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig succeeded with bad timezone, want error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig succeeded on missing file, want error")
	}
}
