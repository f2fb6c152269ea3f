package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// LeadCheck alerts on open leads with no follow-up inside the
// configured window. The alert self-resolves once the lead is
// contacted, converted or dropped.
type LeadCheck struct {
	log       zerolog.Logger
	store     AlertStore
	leads     domain.LeadSource
	staleDays int
}

func NewLeadCheck(log zerolog.Logger, st AlertStore, leads domain.LeadSource, staleDays int) *LeadCheck {
	return &LeadCheck{
		log:       log.With().Str("check", string(types.LeadStale)).Logger(),
		store:     st,
		leads:     leads,
		staleDays: staleDays,
	}
}

func (c *LeadCheck) Name() string {
	return string(types.LeadStale)
}

func (c *LeadCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	cutoff := now.Add(-time.Duration(c.staleDays) * 24 * time.Hour)
	leads, err := c.leads.OpenNotContactedSince(ctx, cutoff)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying leads: %w", err)
	}

	cs := newCandidateSet()
	for _, l := range leads {
		if l.Name == "" || l.CreatedAt.IsZero() {
			c.log.Warn().Int64("lead_id", l.ID).Msg("lead record incomplete, skipping")
			cs.skip(l.ID)
			continue
		}

		lastTouch := l.CreatedAt
		if l.LastContactAt != nil {
			lastTouch = *l.LastContactAt
		}
		idle := daysSince(now, lastTouch)

		severity := types.SeverityMedium
		if idle >= 2*c.staleDays {
			severity = types.SeverityHigh
		}

		cs.add(types.Candidate{
			Type:       types.LeadStale,
			Severity:   severity,
			Title:      "Lead needs follow-up",
			Message:    fmt.Sprintf("Lead %s has had no contact for %d days", l.Name, idle),
			EntityType: "lead",
			EntityID:   l.ID,
		})
	}

	return apply(ctx, c.store, c.log, types.LeadStale, cs, now)
}
