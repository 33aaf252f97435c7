package models

import "time"

// FreshnessStatus classifies an item by how many days remain before expiry.
type FreshnessStatus string

const (
	StatusFresh         FreshnessStatus = "Fresh"
	StatusExpiringSoon  FreshnessStatus = "Expiring Soon"
	StatusExpiringToday FreshnessStatus = "Expiring Today"
	StatusExpired       FreshnessStatus = "Expired"
)

// StatusForDays maps remaining days to a freshness status.
func StatusForDays(days int) FreshnessStatus {
	switch {
	case days < 0:
		return StatusExpired
	case days <= 1:
		return StatusExpiringToday
	case days <= 7:
		return StatusExpiringSoon
	default:
		return StatusFresh
	}
}

// InventoryItem is a perishable product owned by a user.
type InventoryItem struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Name            string          `json:"product_name"`
	Quantity        float64         `json:"quantity"`
	Unit            string          `json:"unit"`
	Category        string          `json:"category,omitempty"`
	StorageLocation string          `json:"storage_location,omitempty"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	RemainingDays   int             `json:"remaining_days"`
	Status          FreshnessStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Annotate fills RemainingDays and Status relative to now. Days are counted
// between calendar dates, so an item expiring later today has zero days left.
func (it *InventoryItem) Annotate(now time.Time) {
	it.RemainingDays = DaysBetween(now, it.ExpiryDate)
	it.Status = StatusForDays(it.RemainingDays)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the whole calendar days from 'from' to 'to', each read
// as a date in its own location. Expiry dates are stored as plain dates.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int((t.Unix() - f.Unix()) / secondsPerDay)
}
