package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/types"
)

// RetentionStore is the slice of the alert store the cleanup job
// deletes through.
type RetentionStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionCheck permanently deletes alerts that reached a terminal,
// expired state: anything past its expiry, and anything resolved
// longer ago than the retention window.
type RetentionCheck struct {
	log       zerolog.Logger
	store     RetentionStore
	retention time.Duration
}

func NewRetentionCheck(log zerolog.Logger, st RetentionStore, resolvedDays int) *RetentionCheck {
	return &RetentionCheck{
		log:       log.With().Str("check", "retention_cleanup").Logger(),
		store:     st,
		retention: time.Duration(resolvedDays) * 24 * time.Hour,
	}
}

func (c *RetentionCheck) Name() string {
	return "retention_cleanup"
}

// Cleanup runs one retention pass and returns the structured counts.
func (c *RetentionCheck) Cleanup(ctx context.Context, now time.Time) (types.CleanupResult, error) {
	expired, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		return types.CleanupResult{}, fmt.Errorf("deleting expired alerts: %w", err)
	}

	oldResolved, err := c.store.DeleteResolvedBefore(ctx, now.Add(-c.retention))
	if err != nil {
		// Report what was already deleted so a partial pass is visible.
		return types.CleanupResult{ExpiredDeleted: expired, Total: expired},
			fmt.Errorf("deleting old resolved alerts: %w", err)
	}

	result := types.CleanupResult{
		ExpiredDeleted:     expired,
		OldResolvedDeleted: oldResolved,
		Total:              expired + oldResolved,
	}
	c.log.Info().
		Int("expired_deleted", result.ExpiredDeleted).
		Int("old_resolved_deleted", result.OldResolvedDeleted).
		Int("total", result.Total).
		Msg("retention pass complete")
	return result, nil
}

func (c *RetentionCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	cleaned, err := c.Cleanup(ctx, now)
	if err != nil {
		return types.RunResult{Deleted: cleaned.Total}, err
	}
	return types.RunResult{Deleted: cleaned.Total}, nil
}
