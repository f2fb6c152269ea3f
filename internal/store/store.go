// Package store contains the SQLite-backed alert store. It is the
// engine's single source of truth for which alerts are currently
// active, and the only place alert rows are mutated.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rentwatch/rentwatch/internal/types"
)

// ErrNotFound is returned when an alert id does not match an active row.
var ErrNotFound = errors.New("alert not found")

// Store persists alerts in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) an alert store at the given path and applies
// the schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open alert store: %w", err)
	}

	// A single connection keeps in-memory stores coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertOutcome reports what an Upsert did.
type UpsertOutcome struct {
	ID        int64
	Created   bool
	Escalated bool
}

const alertSelectCols = "id, type, severity, title, message, entity_type, entity_id, is_read, is_resolved, created_at, updated_at, resolved_at, expires_at"

func scanAlert(scanner interface {
	Scan(dest ...any) error
}) (*types.Alert, error) {
	var (
		a          types.Alert
		resolvedAt sql.NullTime
		expiresAt  sql.NullTime
	)
	err := scanner.Scan(
		&a.ID, &a.Type, &a.Severity, &a.Title, &a.Message, &a.EntityType, &a.EntityID,
		&a.IsRead, &a.IsResolved, &a.CreatedAt, &a.UpdatedAt, &resolvedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}
	return &a, nil
}

func validateCandidate(cand types.Candidate, now time.Time) error {
	if cand.Type == "" || cand.EntityType == "" {
		return fmt.Errorf("candidate missing type or entity_type")
	}
	if cand.Severity.Rank() < 0 {
		return fmt.Errorf("candidate has unknown severity %q", cand.Severity)
	}
	if cand.ExpiresAt != nil && !cand.ExpiresAt.After(now) {
		return fmt.Errorf("candidate expires_at %s is not after creation time", cand.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// Upsert inserts a new alert for the candidate, or refreshes the
// existing active alert with the same natural key. The write is a
// single INSERT ... ON CONFLICT statement guarded by the active
// natural-key index, so it stays correct even if the same check ever
// runs concurrently with itself. An update never touches is_read or
// created_at.
func (s *Store) Upsert(ctx context.Context, cand types.Candidate, now time.Time) (UpsertOutcome, error) {
	if err := validateCandidate(cand, now); err != nil {
		return UpsertOutcome{}, err
	}
	// Times are stored as UTC strings so SQL comparisons against bound
	// parameters stay well ordered.
	now = now.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertOutcome{}, fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback()

	// Prior severity is read only to report Created/Escalated in the
	// outcome; the write itself does not depend on it.
	var prior types.Severity
	hadPrior := true
	err = tx.QueryRowContext(ctx,
		"SELECT severity FROM alerts WHERE type = ? AND entity_type = ? AND entity_id = ? AND is_resolved = 0",
		cand.Type, cand.EntityType, cand.EntityID,
	).Scan(&prior)
	if err == sql.ErrNoRows {
		hadPrior = false
	} else if err != nil {
		return UpsertOutcome{}, fmt.Errorf("failed to query existing alert: %w", err)
	}

	var expiresAt sql.NullTime
	if cand.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: cand.ExpiresAt.UTC(), Valid: true}
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO alerts (type, severity, title, message, entity_type, entity_id, is_read, is_resolved, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)
		ON CONFLICT(type, entity_type, entity_id) WHERE is_resolved = 0 DO UPDATE SET
			severity = excluded.severity,
			title = excluded.title,
			message = excluded.message,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
		RETURNING id`,
		cand.Type, cand.Severity, cand.Title, cand.Message, cand.EntityType, cand.EntityID,
		now, now, expiresAt,
	).Scan(&id)
	if err != nil {
		return UpsertOutcome{}, fmt.Errorf("failed to upsert alert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return UpsertOutcome{}, fmt.Errorf("failed to commit upsert: %w", err)
	}

	return UpsertOutcome{
		ID:        id,
		Created:   !hadPrior,
		Escalated: hadPrior && cand.Severity.Rank() > prior.Rank(),
	}, nil
}

// Get retrieves a single alert by id.
func (s *Store) Get(ctx context.Context, id int64) (*types.Alert, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+alertSelectCols+" FROM alerts WHERE id = ?", id)
	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// ListActive returns unresolved, unexpired alerts, newest first.
func (s *Store) ListActive(ctx context.Context, now time.Time) ([]*types.Alert, error) {
	now = now.UTC()
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+alertSelectCols+" FROM alerts WHERE is_resolved = 0 AND (expires_at IS NULL OR expires_at > ?) ORDER BY created_at DESC, id DESC",
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ActiveByType returns all unresolved alerts of one type, including
// expired ones so the owning check can still reconcile them.
func (s *Store) ActiveByType(ctx context.Context, t types.AlertType) ([]*types.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+alertSelectCols+" FROM alerts WHERE is_resolved = 0 AND type = ? ORDER BY id",
		t,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts by type: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func collectAlerts(rows *sql.Rows) ([]*types.Alert, error) {
	var alerts []*types.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	return alerts, nil
}

// CountActive returns the number of unresolved, unexpired alerts.
func (s *Store) CountActive(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM alerts WHERE is_resolved = 0 AND (expires_at IS NULL OR expires_at > ?)",
		now,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active alerts: %w", err)
	}
	return n, nil
}

// Resolve marks an active alert resolved. Resolving a row that is
// missing or already resolved returns ErrNotFound.
func (s *Store) Resolve(ctx context.Context, id int64, now time.Time) error {
	now = now.UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET is_resolved = 1, resolved_at = ?, updated_at = ? WHERE id = ? AND is_resolved = 0",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead flags an alert as seen by a consumer. The engine itself
// never calls this.
func (s *Store) MarkRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE alerts SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired permanently removes alerts whose expiry has passed,
// resolved or not.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM alerts WHERE expires_at IS NOT NULL AND expires_at <= ?",
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired alerts: %w", err)
	}
	return int(n), nil
}

// DeleteResolvedBefore permanently removes alerts resolved before the
// cutoff.
func (s *Store) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoff = cutoff.UTC()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM alerts WHERE is_resolved = 1 AND resolved_at IS NOT NULL AND resolved_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolved alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolved alerts: %w", err)
	}
	return int(n), nil
}
