// Package domain exposes the engine's read-only view of business
// state. Checks consume these sources; they never write domain rows.
package domain

import (
	"context"
	"time"
)

// Rental is a vehicle rental agreement.
type Rental struct {
	ID           int64
	VehiclePlate string
	CustomerName string
	Status       string // active, completed, cancelled
	StartDate    time.Time
	EndDate      time.Time
}

// Vehicle is a fleet vehicle.
type Vehicle struct {
	ID                 int64
	Plate              string
	Model              string
	NextMaintenanceAt  *time.Time
	InsuranceExpiresAt *time.Time
}

// Payment is an invoiced amount owed by a customer.
type Payment struct {
	ID           int64
	RentalID     int64
	CustomerName string
	Amount       float64
	Status       string // pending, paid, cancelled
	DueDate      time.Time
}

// InventoryItem is a stocked consumable or accessory.
type InventoryItem struct {
	ID           int64
	Name         string
	Quantity     int
	ReorderLevel int
}

// Quote is a rental price offer with a validity deadline.
type Quote struct {
	ID           int64
	CustomerName string
	Amount       float64
	Status       string // open, accepted, rejected
	ValidUntil   time.Time
}

// Lead is a prospective customer awaiting follow-up.
type Lead struct {
	ID            int64
	Name          string
	Status        string // open, converted, dropped
	CreatedAt     time.Time
	LastContactAt *time.Time
}

// RentalSource answers date-predicate queries over rentals.
type RentalSource interface {
	// ActiveEndingBetween returns active rentals whose end date falls
	// inside (from, to].
	ActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Rental, error)
	// ActiveEndedBefore returns rentals still marked active whose end
	// date has already passed.
	ActiveEndedBefore(ctx context.Context, t time.Time) ([]Rental, error)
}

// VehicleSource answers maintenance and insurance queries over vehicles.
type VehicleSource interface {
	MaintenanceDueBefore(ctx context.Context, cutoff time.Time) ([]Vehicle, error)
	InsuranceExpiringBefore(ctx context.Context, cutoff time.Time) ([]Vehicle, error)
}

// PaymentSource answers overdue-invoice queries.
type PaymentSource interface {
	PendingDueBefore(ctx context.Context, t time.Time) ([]Payment, error)
}

// InventorySource answers stock-level queries.
type InventorySource interface {
	BelowReorderLevel(ctx context.Context) ([]InventoryItem, error)
}

// QuoteSource answers quote-deadline queries.
type QuoteSource interface {
	OpenExpiringBefore(ctx context.Context, cutoff time.Time) ([]Quote, error)
}

// LeadSource answers follow-up staleness queries.
type LeadSource interface {
	// OpenNotContactedSince returns open leads whose last contact (or
	// creation, if never contacted) is before the cutoff.
	OpenNotContactedSince(ctx context.Context, cutoff time.Time) ([]Lead, error)
}
