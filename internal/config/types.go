package config

// Config is the complete rentwatch configuration.
type Config struct {
	AlertsDB  string          `yaml:"alerts_db"`
	DomainDB  string          `yaml:"domain_db"`
	Timezone  string          `yaml:"timezone,omitempty"`
	API       APIConfig       `yaml:"api,omitempty"`
	Checks    ChecksConfig    `yaml:"checks,omitempty"`
	Retention RetentionConfig `yaml:"retention,omitempty"`
}

// APIConfig configures the admin HTTP server.
type APIConfig struct {
	Port string `yaml:"port,omitempty"`
}

// ChecksConfig holds per-check schedules and thresholds. Threshold
// values are business parameters; only their defaults live in code.
type ChecksConfig struct {
	MaintenanceDue    WindowCheck `yaml:"maintenance_due,omitempty"`
	InsuranceExpiring WindowCheck `yaml:"insurance_expiring,omitempty"`
	RentalExpiring    WindowCheck `yaml:"rental_expiring,omitempty"`
	RentalOverdue     BasicCheck  `yaml:"rental_overdue,omitempty"`
	PaymentPending    BasicCheck  `yaml:"payment_pending,omitempty"`
	InventoryLow      BasicCheck  `yaml:"inventory_low,omitempty"`
	QuoteExpiring     WindowCheck `yaml:"quote_expiring,omitempty"`
	LeadStale         StaleCheck  `yaml:"lead_stale,omitempty"`
}

// BasicCheck configures a check with no lookahead window.
type BasicCheck struct {
	Schedule string `yaml:"schedule,omitempty"`
}

// WindowCheck configures a check that scans a lookahead window.
type WindowCheck struct {
	Schedule      string `yaml:"schedule,omitempty"`
	LookaheadDays int    `yaml:"lookahead_days,omitempty"`
}

// StaleCheck configures the stale-lead check.
type StaleCheck struct {
	Schedule  string `yaml:"schedule,omitempty"`
	StaleDays int    `yaml:"stale_days,omitempty"`
}

// RetentionConfig configures the cleanup job.
type RetentionConfig struct {
	Schedule     string `yaml:"schedule,omitempty"`
	ResolvedDays int    `yaml:"resolved_days,omitempty"`
}
