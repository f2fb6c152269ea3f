package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// RentalExpiringCheck alerts on active rentals approaching their end
// date. These alerts carry a natural expiry: the rental end itself.
type RentalExpiringCheck struct {
	log       zerolog.Logger
	store     AlertStore
	rentals   domain.RentalSource
	lookahead time.Duration
}

func NewRentalExpiringCheck(log zerolog.Logger, st AlertStore, rentals domain.RentalSource, lookaheadDays int) *RentalExpiringCheck {
	return &RentalExpiringCheck{
		log:       log.With().Str("check", string(types.RentalExpiring)).Logger(),
		store:     st,
		rentals:   rentals,
		lookahead: time.Duration(lookaheadDays) * 24 * time.Hour,
	}
}

func (c *RentalExpiringCheck) Name() string {
	return string(types.RentalExpiring)
}

func (c *RentalExpiringCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	rentals, err := c.rentals.ActiveEndingBetween(ctx, now, now.Add(c.lookahead))
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying rentals: %w", err)
	}

	cs := newCandidateSet()
	for _, r := range rentals {
		if r.EndDate.IsZero() || r.VehiclePlate == "" {
			c.log.Warn().Int64("rental_id", r.ID).Msg("rental record incomplete, skipping")
			cs.skip(r.ID)
			continue
		}

		end := r.EndDate
		severity := types.SeverityLow
		if daysUntil(now, end) < 1 {
			severity = types.SeverityMedium
		}

		cs.add(types.Candidate{
			Type:       types.RentalExpiring,
			Severity:   severity,
			Title:      "Rental ending soon",
			Message:    fmt.Sprintf("Rental of %s by %s ends on %s", r.VehiclePlate, r.CustomerName, end.Format("2006-01-02 15:04")),
			EntityType: "rental",
			EntityID:   r.ID,
			ExpiresAt:  &end,
		})
	}

	return apply(ctx, c.store, c.log, types.RentalExpiring, cs, now)
}

// RentalOverdueCheck alerts on rentals still active past their end
// date. The alert self-resolves once the rental is completed or
// cancelled.
type RentalOverdueCheck struct {
	log     zerolog.Logger
	store   AlertStore
	rentals domain.RentalSource
}

func NewRentalOverdueCheck(log zerolog.Logger, st AlertStore, rentals domain.RentalSource) *RentalOverdueCheck {
	return &RentalOverdueCheck{
		log:     log.With().Str("check", string(types.RentalOverdue)).Logger(),
		store:   st,
		rentals: rentals,
	}
}

func (c *RentalOverdueCheck) Name() string {
	return string(types.RentalOverdue)
}

func (c *RentalOverdueCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	rentals, err := c.rentals.ActiveEndedBefore(ctx, now)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying rentals: %w", err)
	}

	cs := newCandidateSet()
	for _, r := range rentals {
		if r.EndDate.IsZero() || r.VehiclePlate == "" {
			c.log.Warn().Int64("rental_id", r.ID).Msg("rental record incomplete, skipping")
			cs.skip(r.ID)
			continue
		}

		overdue := daysSince(now, r.EndDate)

		var severity types.Severity
		switch {
		case overdue > 7:
			severity = types.SeverityCritical
		case overdue > 3:
			severity = types.SeverityHigh
		default:
			severity = types.SeverityMedium
		}

		cs.add(types.Candidate{
			Type:       types.RentalOverdue,
			Severity:   severity,
			Title:      "Rental overdue",
			Message:    fmt.Sprintf("Rental of %s by %s is %d day(s) overdue (ended %s)", r.VehiclePlate, r.CustomerName, overdue, r.EndDate.Format("2006-01-02")),
			EntityType: "rental",
			EntityID:   r.ID,
		})
	}

	return apply(ctx, c.store, c.log, types.RentalOverdue, cs, now)
}
