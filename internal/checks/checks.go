// Package checks contains the business checks that inspect domain
// state and propose alerts, plus the retention job. Side effects are
// confined to the alert store.
package checks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/store"
	"github.com/rentwatch/rentwatch/internal/types"
)

// Check is one scheduled inspection of domain state.
type Check interface {
	Name() string
	Run(ctx context.Context, now time.Time) (types.RunResult, error)
}

// AlertStore is the slice of the alert store the checks mutate through.
type AlertStore interface {
	Upsert(ctx context.Context, cand types.Candidate, now time.Time) (store.UpsertOutcome, error)
	ActiveByType(ctx context.Context, t types.AlertType) ([]*types.Alert, error)
	Resolve(ctx context.Context, id int64, now time.Time) error
}

// candidateSet accumulates one run's proposed alerts. keep holds the
// entity ids whose alerts must stay active: entities that still qualify
// plus entities that failed to evaluate this run (a malformed row must
// not cause a spurious resolve).
type candidateSet struct {
	cands   []types.Candidate
	keep    map[int64]bool
	skipped int
}

func newCandidateSet() *candidateSet {
	return &candidateSet{keep: make(map[int64]bool)}
}

func (cs *candidateSet) add(cand types.Candidate) {
	cs.cands = append(cs.cands, cand)
	cs.keep[cand.EntityID] = true
}

func (cs *candidateSet) skip(entityID int64) {
	cs.skipped++
	cs.keep[entityID] = true
}

// apply upserts every candidate and then resolves active alerts of the
// given type whose entity no longer qualifies. A failing upsert skips
// that entity; a failing reconciliation query fails the run.
func apply(ctx context.Context, st AlertStore, log zerolog.Logger, alertType types.AlertType, cs *candidateSet, now time.Time) (types.RunResult, error) {
	result := types.RunResult{Skipped: cs.skipped}

	for _, cand := range cs.cands {
		out, err := st.Upsert(ctx, cand, now)
		if err != nil {
			log.Warn().
				Err(err).
				Str("entity_type", cand.EntityType).
				Int64("entity_id", cand.EntityID).
				Msg("failed to upsert alert, skipping entity")
			result.Skipped++
			continue
		}
		if out.Created {
			result.Created++
			log.Info().
				Int64("alert_id", out.ID).
				Str("entity_type", cand.EntityType).
				Int64("entity_id", cand.EntityID).
				Str("severity", string(cand.Severity)).
				Msg("alert created")
		} else {
			result.Updated++
			if out.Escalated {
				log.Info().
					Int64("alert_id", out.ID).
					Int64("entity_id", cand.EntityID).
					Str("severity", string(cand.Severity)).
					Msg("alert severity escalated")
			}
		}
	}

	active, err := st.ActiveByType(ctx, alertType)
	if err != nil {
		return result, err
	}
	for _, alert := range active {
		if cs.keep[alert.EntityID] {
			continue
		}
		if err := st.Resolve(ctx, alert.ID, now); err != nil {
			log.Warn().
				Err(err).
				Int64("alert_id", alert.ID).
				Msg("failed to resolve cleared alert")
			continue
		}
		result.Resolved++
		log.Info().
			Int64("alert_id", alert.ID).
			Int64("entity_id", alert.EntityID).
			Msg("alert resolved, condition no longer holds")
	}

	return result, nil
}

// daysUntil returns whole days from now until t, negative when t has
// passed.
func daysUntil(now, t time.Time) int {
	return int(t.Sub(now).Hours() / 24)
}

// daysSince returns whole days from t until now.
func daysSince(now, t time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}
