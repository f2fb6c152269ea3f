package domain

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaSQL is the subset of the business schema this engine reads.
// The engine never creates these tables in production; the constant
// exists so tests (and local demo setups) can build a database shaped
// like the real one.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS rentals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vehicle_plate TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('active', 'completed', 'cancelled')),
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS vehicles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plate TEXT NOT NULL UNIQUE,
	model TEXT NOT NULL,
	next_maintenance_at DATETIME,
	insurance_expires_at DATETIME
);

CREATE TABLE IF NOT EXISTS payments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rental_id INTEGER NOT NULL,
	customer_name TEXT NOT NULL,
	amount REAL NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'paid', 'cancelled')),
	due_date DATETIME NOT NULL,
	FOREIGN KEY (rental_id) REFERENCES rentals(id)
);

CREATE TABLE IF NOT EXISTS inventory_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	reorder_level INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quotes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_name TEXT NOT NULL,
	amount REAL NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('open', 'accepted', 'rejected')),
	valid_until DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('open', 'converted', 'dropped')),
	created_at DATETIME NOT NULL,
	last_contact_at DATETIME
);
`

// DB implements every domain source over a SQLite business database.
type DB struct {
	db *sql.DB
}

// Open opens the business database read side.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open domain database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &DB{db: db}, nil
}

// OpenWithSchema opens the database and applies SchemaSQL. Intended
// for tests and local demo databases.
func OpenWithSchema(path string) (*DB, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := d.db.Exec(SchemaSQL); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to apply domain schema: %w", err)
	}
	return d, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Exec runs a statement against the underlying database. Test and
// seed helper; the engine itself only reads.
func (d *DB) Exec(query string, args ...any) error {
	_, err := d.db.Exec(query, args...)
	return err
}

func (d *DB) ActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Rental, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, vehicle_plate, customer_name, status, start_date, end_date FROM rentals WHERE status = 'active' AND end_date > ? AND end_date <= ? ORDER BY end_date",
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ending rentals: %w", err)
	}
	defer rows.Close()
	return collectRentals(rows)
}

func (d *DB) ActiveEndedBefore(ctx context.Context, t time.Time) ([]Rental, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, vehicle_plate, customer_name, status, start_date, end_date FROM rentals WHERE status = 'active' AND end_date <= ? ORDER BY end_date",
		t.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue rentals: %w", err)
	}
	defer rows.Close()
	return collectRentals(rows)
}

func collectRentals(rows *sql.Rows) ([]Rental, error) {
	var rentals []Rental
	for rows.Next() {
		var r Rental
		if err := rows.Scan(&r.ID, &r.VehiclePlate, &r.CustomerName, &r.Status, &r.StartDate, &r.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, r)
	}
	return rentals, rows.Err()
}

func (d *DB) MaintenanceDueBefore(ctx context.Context, cutoff time.Time) ([]Vehicle, error) {
	return d.queryVehicles(ctx,
		"SELECT id, plate, model, next_maintenance_at, insurance_expires_at FROM vehicles WHERE next_maintenance_at IS NOT NULL AND next_maintenance_at <= ? ORDER BY next_maintenance_at",
		cutoff.UTC(),
	)
}

func (d *DB) InsuranceExpiringBefore(ctx context.Context, cutoff time.Time) ([]Vehicle, error) {
	return d.queryVehicles(ctx,
		"SELECT id, plate, model, next_maintenance_at, insurance_expires_at FROM vehicles WHERE insurance_expires_at IS NOT NULL AND insurance_expires_at <= ? ORDER BY insurance_expires_at",
		cutoff.UTC(),
	)
}

func (d *DB) queryVehicles(ctx context.Context, query string, args ...any) ([]Vehicle, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var (
			v           Vehicle
			maintenance sql.NullTime
			insurance   sql.NullTime
		)
		if err := rows.Scan(&v.ID, &v.Plate, &v.Model, &maintenance, &insurance); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		if maintenance.Valid {
			t := maintenance.Time
			v.NextMaintenanceAt = &t
		}
		if insurance.Valid {
			t := insurance.Time
			v.InsuranceExpiresAt = &t
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (d *DB) PendingDueBefore(ctx context.Context, t time.Time) ([]Payment, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, rental_id, customer_name, amount, status, due_date FROM payments WHERE status = 'pending' AND due_date <= ? ORDER BY due_date",
		t.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.RentalID, &p.CustomerName, &p.Amount, &p.Status, &p.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (d *DB) BelowReorderLevel(ctx context.Context) ([]InventoryItem, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, name, quantity, reorder_level FROM inventory_items WHERE quantity <= reorder_level ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.ReorderLevel); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (d *DB) OpenExpiringBefore(ctx context.Context, cutoff time.Time) ([]Quote, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, customer_name, amount, status, valid_until FROM quotes WHERE status = 'open' AND valid_until <= ? ORDER BY valid_until",
		cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.CustomerName, &q.Amount, &q.Status, &q.ValidUntil); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (d *DB) OpenNotContactedSince(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, name, status, created_at, last_contact_at FROM leads WHERE status = 'open' AND COALESCE(last_contact_at, created_at) < ? ORDER BY id",
		cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var (
			l           Lead
			lastContact sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Status, &l.CreatedAt, &lastContact); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if lastContact.Valid {
			t := lastContact.Time
			l.LastContactAt = &t
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
