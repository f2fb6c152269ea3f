package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// QuoteCheck alerts on open quotes approaching their validity
// deadline. The alert expires with the quote itself.
type QuoteCheck struct {
	log       zerolog.Logger
	store     AlertStore
	quotes    domain.QuoteSource
	lookahead time.Duration
}

func NewQuoteCheck(log zerolog.Logger, st AlertStore, quotes domain.QuoteSource, lookaheadDays int) *QuoteCheck {
	return &QuoteCheck{
		log:       log.With().Str("check", string(types.QuoteExpiring)).Logger(),
		store:     st,
		quotes:    quotes,
		lookahead: time.Duration(lookaheadDays) * 24 * time.Hour,
	}
}

func (c *QuoteCheck) Name() string {
	return string(types.QuoteExpiring)
}

func (c *QuoteCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	quotes, err := c.quotes.OpenExpiringBefore(ctx, now.Add(c.lookahead))
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying quotes: %w", err)
	}

	cs := newCandidateSet()
	for _, q := range quotes {
		if q.ValidUntil.IsZero() {
			c.log.Warn().Int64("quote_id", q.ID).Msg("quote record incomplete, skipping")
			cs.skip(q.ID)
			continue
		}
		// A quote already past its deadline lapsed on its own: no new
		// alert, and reconciliation below resolves any existing one.
		if !q.ValidUntil.After(now) {
			continue
		}

		validUntil := q.ValidUntil
		severity := types.SeverityMedium
		if daysUntil(now, validUntil) < 1 {
			severity = types.SeverityHigh
		}

		cs.add(types.Candidate{
			Type:       types.QuoteExpiring,
			Severity:   severity,
			Title:      "Quote expiring",
			Message:    fmt.Sprintf("Quote of %.2f for %s is valid until %s", q.Amount, q.CustomerName, validUntil.Format("2006-01-02")),
			EntityType: "quote",
			EntityID:   q.ID,
			ExpiresAt:  &validUntil,
		})
	}

	return apply(ctx, c.store, c.log, types.QuoteExpiring, cs, now)
}
