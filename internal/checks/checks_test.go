package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentwatch/rentwatch/internal/domain"
	"github.com/rentwatch/rentwatch/internal/store"
	"github.com/rentwatch/rentwatch/internal/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testLog = zerolog.Nop()

type fakeRentals struct {
	ending  []domain.Rental
	overdue []domain.Rental
	err     error
}

func (f *fakeRentals) ActiveEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error) {
	return f.ending, f.err
}

func (f *fakeRentals) ActiveEndedBefore(ctx context.Context, t time.Time) ([]domain.Rental, error) {
	return f.overdue, f.err
}

type fakeVehicles struct {
	maintenance []domain.Vehicle
	insurance   []domain.Vehicle
	err         error
}

func (f *fakeVehicles) MaintenanceDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Vehicle, error) {
	return f.maintenance, f.err
}

func (f *fakeVehicles) InsuranceExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.Vehicle, error) {
	return f.insurance, f.err
}

func TestRentalOverdueCreatesSingleAlert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	rentals := &fakeRentals{overdue: []domain.Rental{{
		ID:           17,
		VehiclePlate: "B-RW 501",
		CustomerName: "Keller",
		Status:       "active",
		EndDate:      now.Add(-24 * time.Hour),
	}}}
	check := NewRentalOverdueCheck(testLog, s, rentals)

	result, err := check.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Created != 1 || result.Updated != 0 || result.Resolved != 0 {
		t.Fatalf("first run result = %+v, want 1 created", result)
	}

	active, err := s.ActiveByType(ctx, types.RentalOverdue)
	if err != nil {
		t.Fatalf("ActiveByType: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	alert := active[0]
	if alert.EntityType != "rental" || alert.EntityID != 17 {
		t.Errorf("alert subject = %s/%d, want rental/17", alert.EntityType, alert.EntityID)
	}
	if alert.Severity != types.SeverityMedium {
		t.Errorf("severity = %s for 1 day overdue, want medium", alert.Severity)
	}
	if alert.IsResolved {
		t.Error("new alert is_resolved = true")
	}

	// Unchanged domain state: same row, no duplicate.
	result, err = check.Run(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("second run result = %+v, want only 1 updated", result)
	}

	again, err := s.ActiveByType(ctx, types.RentalOverdue)
	if err != nil {
		t.Fatalf("ActiveByType: %v", err)
	}
	if len(again) != 1 || again[0].ID != alert.ID {
		t.Fatalf("second run changed rows: %+v", again)
	}
	if !again[0].CreatedAt.Equal(alert.CreatedAt) {
		t.Error("created_at changed on re-run")
	}
}

func TestRentalOverdueEscalatesInPlace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	rental := domain.Rental{
		ID: 3, VehiclePlate: "B-RW 502", CustomerName: "Schmid",
		Status: "active", EndDate: now.Add(-24 * time.Hour),
	}
	rentals := &fakeRentals{overdue: []domain.Rental{rental}}
	check := NewRentalOverdueCheck(testLog, s, rentals)

	if _, err := check.Run(ctx, now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	active, _ := s.ActiveByType(ctx, types.RentalOverdue)
	if err := s.MarkRead(ctx, active[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	// Ten days later the same rental is still out.
	if _, err := check.Run(ctx, now.Add(9*24*time.Hour)); err != nil {
		t.Fatalf("later Run: %v", err)
	}

	alert, err := s.Get(ctx, active[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if alert.Severity != types.SeverityCritical {
		t.Errorf("severity = %s after 10 days, want critical", alert.Severity)
	}
	if !alert.IsRead {
		t.Error("is_read reset by escalation update")
	}

	all, _ := s.ActiveByType(ctx, types.RentalOverdue)
	if len(all) != 1 {
		t.Errorf("escalation forked a new row: %d active", len(all))
	}
}

func TestRentalOverdueSelfResolves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	rentals := &fakeRentals{overdue: []domain.Rental{
		{ID: 1, VehiclePlate: "B-RW 503", CustomerName: "Keller", Status: "active", EndDate: now.Add(-24 * time.Hour)},
		{ID: 2, VehiclePlate: "B-RW 504", CustomerName: "Vogel", Status: "active", EndDate: now.Add(-48 * time.Hour)},
	}}
	check := NewRentalOverdueCheck(testLog, s, rentals)
	if _, err := check.Run(ctx, now); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var firstID int64
	for _, a := range mustActive(t, s, types.RentalOverdue) {
		if a.EntityID == 1 {
			firstID = a.ID
		}
	}

	// Rental 1 is returned; it no longer qualifies.
	rentals.overdue = rentals.overdue[1:]
	result, err := check.Run(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Run after completion: %v", err)
	}
	if result.Resolved != 1 {
		t.Fatalf("result = %+v, want 1 resolved", result)
	}

	active, _ := s.ActiveByType(ctx, types.RentalOverdue)
	if len(active) != 1 || active[0].EntityID != 2 {
		t.Fatalf("active after resolve = %+v, want only rental 2", active)
	}

	// The resolved alert carries a resolution timestamp; the other one
	// is untouched.
	resolved, err := s.Get(ctx, firstID)
	if err != nil {
		t.Fatalf("Get resolved alert: %v", err)
	}
	if !resolved.IsResolved || resolved.ResolvedAt == nil {
		t.Errorf("resolved alert state: is_resolved=%v resolved_at=%v", resolved.IsResolved, resolved.ResolvedAt)
	}
	if active[0].IsResolved {
		t.Error("unrelated alert was resolved")
	}
}

func mustActive(t *testing.T, s *store.Store, at types.AlertType) []*types.Alert {
	t.Helper()
	alerts, err := s.ActiveByType(context.Background(), at)
	if err != nil {
		t.Fatalf("ActiveByType: %v", err)
	}
	return alerts
}

func TestMalformedEntityIsIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	rentals := &fakeRentals{overdue: []domain.Rental{
		{ID: 1, VehiclePlate: "", CustomerName: "Keller", Status: "active", EndDate: now.Add(-24 * time.Hour)},
		{ID: 2, VehiclePlate: "B-RW 505", CustomerName: "Vogel", Status: "active", EndDate: now.Add(-24 * time.Hour)},
	}}
	check := NewRentalOverdueCheck(testLog, s, rentals)

	result, err := check.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run returned error despite per-entity isolation: %v", err)
	}
	if result.Created != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want 1 created and 1 skipped", result)
	}

	active, _ := s.ActiveByType(ctx, types.RentalOverdue)
	if len(active) != 1 || active[0].EntityID != 2 {
		t.Fatalf("active = %+v, want only rental 2", active)
	}
}

func TestSkippedEntityIsNotResolved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	good := domain.Rental{ID: 1, VehiclePlate: "B-RW 506", CustomerName: "Keller", Status: "active", EndDate: now.Add(-24 * time.Hour)}
	rentals := &fakeRentals{overdue: []domain.Rental{good}}
	check := NewRentalOverdueCheck(testLog, s, rentals)
	if _, err := check.Run(ctx, now); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The same rental comes back malformed: its alert must survive.
	bad := good
	bad.VehiclePlate = ""
	rentals.overdue = []domain.Rental{bad}
	result, err := check.Run(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Resolved != 0 {
		t.Fatalf("result = %+v, malformed entity caused a resolve", result)
	}
	active, _ := s.ActiveByType(ctx, types.RentalOverdue)
	if len(active) != 1 {
		t.Fatalf("active = %d, want the alert preserved", len(active))
	}
}

func TestDomainQueryFailureFailsCheck(t *testing.T) {
	s := newTestStore(t)
	rentals := &fakeRentals{err: errors.New("connection refused")}
	check := NewRentalOverdueCheck(testLog, s, rentals)

	if _, err := check.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("Run succeeded with unreachable domain source, want error")
	}
}

func TestMaintenanceSeveritySteps(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		due  time.Time
		want types.Severity
	}{
		{"due in 3 days", now.Add(3 * day), types.SeverityMedium},
		{"overdue 3 days", now.Add(-3 * day), types.SeverityHigh},
		{"overdue 10 days", now.Add(-10 * day), types.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			due := tt.due
			vehicles := &fakeVehicles{maintenance: []domain.Vehicle{{
				ID: 1, Plate: "B-RW 507", Model: "Caddy", NextMaintenanceAt: &due,
			}}}
			check := NewMaintenanceCheck(testLog, s, vehicles, 14)

			if _, err := check.Run(context.Background(), now); err != nil {
				t.Fatalf("Run: %v", err)
			}
			active, _ := s.ActiveByType(context.Background(), types.MaintenanceDue)
			if len(active) != 1 {
				t.Fatalf("active = %d, want 1", len(active))
			}
			if active[0].Severity != tt.want {
				t.Errorf("severity = %s, want %s", active[0].Severity, tt.want)
			}
		})
	}
}

func TestRentalExpiringCarriesExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	end := now.Add(36 * time.Hour)

	rentals := &fakeRentals{ending: []domain.Rental{{
		ID: 8, VehiclePlate: "B-RW 508", CustomerName: "Brandt", Status: "active", EndDate: end,
	}}}
	check := NewRentalExpiringCheck(testLog, s, rentals, 2)

	if _, err := check.Run(ctx, now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	active, _ := s.ActiveByType(ctx, types.RentalExpiring)
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	if active[0].ExpiresAt == nil || !active[0].ExpiresAt.Equal(end) {
		t.Errorf("ExpiresAt = %v, want rental end %v", active[0].ExpiresAt, end)
	}
	if active[0].Severity != types.SeverityLow {
		t.Errorf("severity = %s for 1.5 days out, want low", active[0].Severity)
	}
}

func TestRetentionCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

	// One alert expired yesterday.
	yesterday := now.Add(-24 * time.Hour)
	expired := types.Candidate{
		Type: types.QuoteExpiring, Severity: types.SeverityMedium,
		Title: "Quote expiring", Message: "Quote for Keller expires",
		EntityType: "quote", EntityID: 1, ExpiresAt: &yesterday,
	}
	if _, err := s.Upsert(ctx, expired, now.Add(-72*time.Hour)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// One alert resolved 40 days ago.
	old, err := s.Upsert(ctx, types.Candidate{
		Type: types.RentalOverdue, Severity: types.SeverityMedium,
		Title: "Rental overdue", Message: "Rental overdue",
		EntityType: "rental", EntityID: 2,
	}, now.Add(-41*24*time.Hour))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Resolve(ctx, old.ID, now.Add(-40*24*time.Hour)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	check := NewRetentionCheck(testLog, s, 30)
	cleaned, err := check.Cleanup(ctx, now)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if cleaned.ExpiredDeleted != 1 || cleaned.OldResolvedDeleted != 1 || cleaned.Total != 2 {
		t.Fatalf("Cleanup = %+v, want {1, 1, 2}", cleaned)
	}

	if _, err := s.Get(ctx, old.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old resolved alert survived cleanup: %v", err)
	}

	result, err := check.Run(ctx, now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Deleted != 0 {
		t.Errorf("second pass deleted %d, want 0", result.Deleted)
	}
}

type failingRetentionStore struct{}

func (failingRetentionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, errors.New("disk I/O error")
}

func (failingRetentionStore) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, errors.New("disk I/O error")
}

func TestRetentionFailureIsAnError(t *testing.T) {
	check := NewRetentionCheck(testLog, failingRetentionStore{}, 30)
	if _, err := check.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("Run succeeded with failing store, want error")
	}
}
