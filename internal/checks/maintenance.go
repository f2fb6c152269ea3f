package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// MaintenanceCheck alerts on vehicles whose next maintenance falls
// inside the lookahead window or is already overdue.
type MaintenanceCheck struct {
	log       zerolog.Logger
	store     AlertStore
	vehicles  domain.VehicleSource
	lookahead time.Duration
}

func NewMaintenanceCheck(log zerolog.Logger, st AlertStore, vehicles domain.VehicleSource, lookaheadDays int) *MaintenanceCheck {
	return &MaintenanceCheck{
		log:       log.With().Str("check", string(types.MaintenanceDue)).Logger(),
		store:     st,
		vehicles:  vehicles,
		lookahead: time.Duration(lookaheadDays) * 24 * time.Hour,
	}
}

func (c *MaintenanceCheck) Name() string {
	return string(types.MaintenanceDue)
}

func (c *MaintenanceCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	vehicles, err := c.vehicles.MaintenanceDueBefore(ctx, now.Add(c.lookahead))
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying vehicles: %w", err)
	}

	cs := newCandidateSet()
	for _, v := range vehicles {
		if v.NextMaintenanceAt == nil || v.Plate == "" {
			c.log.Warn().Int64("vehicle_id", v.ID).Msg("vehicle record incomplete, skipping")
			cs.skip(v.ID)
			continue
		}

		due := *v.NextMaintenanceAt
		overdue := daysSince(now, due)

		var severity types.Severity
		var message string
		switch {
		case overdue > 7:
			severity = types.SeverityCritical
			message = fmt.Sprintf("%s (%s): maintenance overdue by %d days", v.Plate, v.Model, overdue)
		case overdue >= 1:
			severity = types.SeverityHigh
			message = fmt.Sprintf("%s (%s): maintenance overdue by %d days", v.Plate, v.Model, overdue)
		default:
			severity = types.SeverityMedium
			message = fmt.Sprintf("%s (%s): maintenance due on %s", v.Plate, v.Model, due.Format("2006-01-02"))
		}

		cs.add(types.Candidate{
			Type:       types.MaintenanceDue,
			Severity:   severity,
			Title:      "Vehicle maintenance due",
			Message:    message,
			EntityType: "vehicle",
			EntityID:   v.ID,
		})
	}

	return apply(ctx, c.store, c.log, types.MaintenanceDue, cs, now)
}
