package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// InsuranceCheck alerts on vehicles whose insurance policy expires
// inside the lookahead window or has already lapsed.
type InsuranceCheck struct {
	log       zerolog.Logger
	store     AlertStore
	vehicles  domain.VehicleSource
	lookahead time.Duration
}

func NewInsuranceCheck(log zerolog.Logger, st AlertStore, vehicles domain.VehicleSource, lookaheadDays int) *InsuranceCheck {
	return &InsuranceCheck{
		log:       log.With().Str("check", string(types.InsuranceExpiring)).Logger(),
		store:     st,
		vehicles:  vehicles,
		lookahead: time.Duration(lookaheadDays) * 24 * time.Hour,
	}
}

func (c *InsuranceCheck) Name() string {
	return string(types.InsuranceExpiring)
}

func (c *InsuranceCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	vehicles, err := c.vehicles.InsuranceExpiringBefore(ctx, now.Add(c.lookahead))
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying vehicles: %w", err)
	}

	cs := newCandidateSet()
	for _, v := range vehicles {
		if v.InsuranceExpiresAt == nil || v.Plate == "" {
			c.log.Warn().Int64("vehicle_id", v.ID).Msg("vehicle record incomplete, skipping")
			cs.skip(v.ID)
			continue
		}

		expires := *v.InsuranceExpiresAt
		left := daysUntil(now, expires)

		var severity types.Severity
		switch {
		case left <= 3:
			severity = types.SeverityHigh
		case left <= 14:
			severity = types.SeverityMedium
		default:
			severity = types.SeverityLow
		}

		message := fmt.Sprintf("%s (%s): insurance expires on %s", v.Plate, v.Model, expires.Format("2006-01-02"))
		if left < 0 {
			message = fmt.Sprintf("%s (%s): insurance lapsed on %s", v.Plate, v.Model, expires.Format("2006-01-02"))
		}

		cs.add(types.Candidate{
			Type:       types.InsuranceExpiring,
			Severity:   severity,
			Title:      "Vehicle insurance expiring",
			Message:    message,
			EntityType: "vehicle",
			EntityID:   v.ID,
		})
	}

	return apply(ctx, c.store, c.log, types.InsuranceExpiring, cs, now)
}
