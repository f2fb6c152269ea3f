package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/checks"
	"github.com/rentwatch/rentwatch/internal/config"
	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/engine"
	"github.com/rentwatch/rentwatch/internal/schedule"
	"github.com/rentwatch/rentwatch/internal/store"
	"github.com/rentwatch/rentwatch/internal/version"
)

// app holds the bootstrapped process dependencies shared by all
// subcommands: config, logger, both databases and the timezone.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	alerts *store.Store
	domain *domain.DB
	loc    *time.Location
}

// newLogger builds the process logger. extra, when non-nil, receives a
// copy of every line (the serve command feeds the /api/logs buffer).
func newLogger(level string, extra io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	var w io.Writer = os.Stdout
	if extra != nil {
		w = io.MultiWriter(os.Stdout, extra)
	}
	return zerolog.New(w).With().
		Timestamp().
		Str("version", version.GetVersion()).
		Logger()
}

// loadApp loads config and opens both databases.
func loadApp(extra io.Writer) (*app, error) {
	log := newLogger(logLevel, extra)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve timezone: %w", err)
	}

	alerts, err := store.Open(cfg.AlertsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open alerts database: %w", err)
	}

	dom, err := domain.Open(cfg.DomainDB)
	if err != nil {
		alerts.Close()
		return nil, fmt.Errorf("failed to open domain database: %w", err)
	}

	return &app{cfg: cfg, log: log, alerts: alerts, domain: dom, loc: loc}, nil
}

func (a *app) Close() {
	a.domain.Close()
	a.alerts.Close()
}

// retention builds the cleanup job from config.
func (a *app) retention() *checks.RetentionCheck {
	return checks.NewRetentionCheck(a.log, a.alerts, a.cfg.Retention.ResolvedDays)
}

// buildEngine registers every configured check plus the retention job
// on its schedule. Config validation already parsed every schedule
// string, so a parse failure here is a programming error.
func (a *app) buildEngine() (*engine.Engine, error) {
	eng := engine.New(a.log, a.loc)
	c := a.cfg.Checks

	regs := []struct {
		schedule string
		check    checks.Check
	}{
		{c.MaintenanceDue.Schedule, checks.NewMaintenanceCheck(a.log, a.alerts, a.domain, c.MaintenanceDue.LookaheadDays)},
		{c.InsuranceExpiring.Schedule, checks.NewInsuranceCheck(a.log, a.alerts, a.domain, c.InsuranceExpiring.LookaheadDays)},
		{c.RentalExpiring.Schedule, checks.NewRentalExpiringCheck(a.log, a.alerts, a.domain, c.RentalExpiring.LookaheadDays)},
		{c.RentalOverdue.Schedule, checks.NewRentalOverdueCheck(a.log, a.alerts, a.domain)},
		{c.PaymentPending.Schedule, checks.NewPaymentCheck(a.log, a.alerts, a.domain)},
		{c.InventoryLow.Schedule, checks.NewInventoryCheck(a.log, a.alerts, a.domain)},
		{c.QuoteExpiring.Schedule, checks.NewQuoteCheck(a.log, a.alerts, a.domain, c.QuoteExpiring.LookaheadDays)},
		{c.LeadStale.Schedule, checks.NewLeadCheck(a.log, a.alerts, a.domain, c.LeadStale.StaleDays)},
		{a.cfg.Retention.Schedule, a.retention()},
	}

	for _, r := range regs {
		spec, err := schedule.Parse(r.schedule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule for %s: %w", r.check.Name(), err)
		}
		if err := eng.Register(spec, r.check); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", r.check.Name(), err)
		}
	}

	return eng, nil
}
