package types

import "time"

// AlertType identifies which check owns an alert's lifecycle.
type AlertType string

const (
	MaintenanceDue    AlertType = "maintenance_due"
	InsuranceExpiring AlertType = "insurance_expiring"
	RentalExpiring    AlertType = "rental_expiring"
	RentalOverdue     AlertType = "rental_overdue"
	PaymentPending    AlertType = "payment_pending"
	InventoryLow      AlertType = "inventory_low"
	QuoteExpiring     AlertType = "quote_expiring"
	LeadStale         AlertType = "lead_stale"
)

// Severity is the ordered urgency of an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordering position of a severity. Unknown severities
// rank below low.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Alert is a persisted alert record.
type Alert struct {
	ID         int64      `json:"id"`
	Type       AlertType  `json:"type"`
	Severity   Severity   `json:"severity"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EntityType string     `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	IsRead     bool       `json:"is_read"`
	IsResolved bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Candidate is the proposed-but-not-yet-persisted data for an alert,
// produced by a check. (Type, EntityType, EntityID) is the natural key
// used for deduplication.
type Candidate struct {
	Type       AlertType
	Severity   Severity
	Title      string
	Message    string
	EntityType string
	EntityID   int64
	ExpiresAt  *time.Time
}

// RunResult summarizes one execution of a check. Deleted is only
// non-zero for the retention job.
type RunResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
	Deleted  int `json:"deleted"`
}

// Total returns the number of alerts the run touched.
func (r RunResult) Total() int {
	return r.Created + r.Updated + r.Resolved + r.Deleted
}

// CleanupResult summarizes one retention pass.
type CleanupResult struct {
	ExpiredDeleted     int `json:"expired_deleted"`
	OldResolvedDeleted int `json:"old_resolved_deleted"`
	Total              int `json:"total"`
}
