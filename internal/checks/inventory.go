package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/types"
)

// InventoryCheck alerts on items at or below their reorder level. The
// alert self-resolves once stock is replenished.
type InventoryCheck struct {
	log       zerolog.Logger
	store     AlertStore
	inventory domain.InventorySource
}

func NewInventoryCheck(log zerolog.Logger, st AlertStore, inventory domain.InventorySource) *InventoryCheck {
	return &InventoryCheck{
		log:       log.With().Str("check", string(types.InventoryLow)).Logger(),
		store:     st,
		inventory: inventory,
	}
}

func (c *InventoryCheck) Name() string {
	return string(types.InventoryLow)
}

func (c *InventoryCheck) Run(ctx context.Context, now time.Time) (types.RunResult, error) {
	items, err := c.inventory.BelowReorderLevel(ctx)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("querying inventory: %w", err)
	}

	cs := newCandidateSet()
	for _, it := range items {
		if it.Name == "" || it.Quantity < 0 {
			c.log.Warn().Int64("item_id", it.ID).Msg("inventory record incomplete, skipping")
			cs.skip(it.ID)
			continue
		}

		var severity types.Severity
		switch {
		case it.Quantity == 0:
			severity = types.SeverityCritical
		case it.Quantity*2 <= it.ReorderLevel:
			severity = types.SeverityHigh
		default:
			severity = types.SeverityMedium
		}

		cs.add(types.Candidate{
			Type:       types.InventoryLow,
			Severity:   severity,
			Title:      "Inventory low",
			Message:    fmt.Sprintf("%s: %d in stock (reorder at %d)", it.Name, it.Quantity, it.ReorderLevel),
			EntityType: "inventory_item",
			EntityID:   it.ID,
		})
	}

	return apply(ctx, c.store, c.log, types.InventoryLow, cs, now)
}
