package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rentwatch/rentwatch/internal/schedule"
)

// LoadConfig loads and validates configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AlertsDB == "" {
		c.AlertsDB = "rentwatch.db"
	}
	if c.DomainDB == "" {
		c.DomainDB = c.AlertsDB
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.API.Port == "" {
		c.API.Port = "8090"
	}

	if c.Checks.MaintenanceDue.Schedule == "" {
		c.Checks.MaintenanceDue.Schedule = "daily 08:00"
	}
	if c.Checks.MaintenanceDue.LookaheadDays == 0 {
		c.Checks.MaintenanceDue.LookaheadDays = 14
	}
	if c.Checks.InsuranceExpiring.Schedule == "" {
		c.Checks.InsuranceExpiring.Schedule = "daily 08:05"
	}
	if c.Checks.InsuranceExpiring.LookaheadDays == 0 {
		c.Checks.InsuranceExpiring.LookaheadDays = 30
	}
	if c.Checks.RentalExpiring.Schedule == "" {
		c.Checks.RentalExpiring.Schedule = "every 6h"
	}
	if c.Checks.RentalExpiring.LookaheadDays == 0 {
		c.Checks.RentalExpiring.LookaheadDays = 2
	}
	if c.Checks.RentalOverdue.Schedule == "" {
		c.Checks.RentalOverdue.Schedule = "every 1h"
	}
	if c.Checks.PaymentPending.Schedule == "" {
		c.Checks.PaymentPending.Schedule = "daily 09:00"
	}
	if c.Checks.InventoryLow.Schedule == "" {
		c.Checks.InventoryLow.Schedule = "every 12h"
	}
	if c.Checks.QuoteExpiring.Schedule == "" {
		c.Checks.QuoteExpiring.Schedule = "daily 08:10"
	}
	if c.Checks.QuoteExpiring.LookaheadDays == 0 {
		c.Checks.QuoteExpiring.LookaheadDays = 3
	}
	if c.Checks.LeadStale.Schedule == "" {
		c.Checks.LeadStale.Schedule = "daily 10:00"
	}
	if c.Checks.LeadStale.StaleDays == 0 {
		c.Checks.LeadStale.StaleDays = 7
	}

	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "daily 03:30"
	}
	if c.Retention.ResolvedDays == 0 {
		c.Retention.ResolvedDays = 30
	}
}

// Location resolves the configured scheduler timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ValidateConfig validates the configuration. A mis-registered schedule
// is fatal here rather than silently skipped at runtime.
func ValidateConfig(cfg *Config) error {
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	schedules := map[string]string{
		"checks.maintenance_due":    cfg.Checks.MaintenanceDue.Schedule,
		"checks.insurance_expiring": cfg.Checks.InsuranceExpiring.Schedule,
		"checks.rental_expiring":    cfg.Checks.RentalExpiring.Schedule,
		"checks.rental_overdue":     cfg.Checks.RentalOverdue.Schedule,
		"checks.payment_pending":    cfg.Checks.PaymentPending.Schedule,
		"checks.inventory_low":      cfg.Checks.InventoryLow.Schedule,
		"checks.quote_expiring":     cfg.Checks.QuoteExpiring.Schedule,
		"checks.lead_stale":         cfg.Checks.LeadStale.Schedule,
		"retention":                 cfg.Retention.Schedule,
	}
	for name, spec := range schedules {
		if _, err := schedule.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if cfg.Checks.MaintenanceDue.LookaheadDays < 0 ||
		cfg.Checks.InsuranceExpiring.LookaheadDays < 0 ||
		cfg.Checks.RentalExpiring.LookaheadDays < 0 ||
		cfg.Checks.QuoteExpiring.LookaheadDays < 0 {
		return fmt.Errorf("lookahead_days must not be negative")
	}
	if cfg.Checks.LeadStale.StaleDays < 1 {
		return fmt.Errorf("checks.lead_stale: stale_days must be at least 1")
	}
	if cfg.Retention.ResolvedDays < 1 {
		return fmt.Errorf("retention: resolved_days must be at least 1")
	}

	return nil
}
