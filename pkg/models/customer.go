package models

import (
	"strings"
	"time"
)

// Customer is a customer record as stored in the staging database.
// The dedup core reads customers and mutates them only through the
// repository layer; it never caches them beyond a single scan/merge session.
type Customer struct {
	ID            string    `json:"id" db:"id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	Email         string    `json:"email" db:"email"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Phone         *string   `json:"phone,omitempty" db:"phone"`
	TotalBookings int       `json:"total_bookings" db:"total_bookings"`
	TotalSpent    float64   `json:"total_spent" db:"total_spent"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns "first last" with surrounding whitespace trimmed.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// PhoneValue returns the phone number or "" when unset.
func (c *Customer) PhoneValue() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}
