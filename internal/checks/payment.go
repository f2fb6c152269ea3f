package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// PaymentCheck alerts on pending payments past their due date. The
// alert self-resolves once the invoice is paid or cancelled.
type PaymentCheck struct {
	log      zerolog.Logger
	store    AlertStore
	payments domain.PaymentSource
}

func NewPaymentCheck(log zerolog.Logger, st AlertStore, payments domain.PaymentSource) *PaymentCheck {
	return &PaymentCheck{
		log:      log.With().Str("check", string(types.PaymentPending)).Logger(),
		store:    st,
		payments: payments,
	}
}

func (c *PaymentCheck) Name() string {
	return string(types.PaymentPending)
}

func (c *PaymentCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	payments, err := c.payments.PendingDueBefore(ctx, now)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying payments: %w", err)
	}

	cs := newCandidateSet()
	for _, p := range payments {
		if p.DueDate.IsZero() || p.Amount <= 0 {
			c.log.Warn().Int64("payment_id", p.ID).Msg("payment record incomplete, skipping")
			cs.skip(p.ID)
			continue
		}

		overdue := daysSince(now, p.DueDate)

		var severity types.Severity
		switch {
		case overdue > 30:
			severity = types.SeverityCritical
		case overdue > 7:
			severity = types.SeverityHigh
		default:
			severity = types.SeverityMedium
		}

		cs.add(types.Candidate{
			Type:       types.PaymentPending,
			Severity:   severity,
			Title:      "Payment overdue",
			Message:    fmt.Sprintf("Invoice of %.2f for %s is %d day(s) overdue (due %s)", p.Amount, p.CustomerName, overdue, p.DueDate.Format("2006-01-02")),
			EntityType: "payment",
			EntityID:   p.ID,
		})
	}

	return apply(ctx, c.store, c.log, types.PaymentPending, cs, now)
}
