package models

import "time"

// Booking statuses as stored in the bookings table. The dedup core never
// changes a booking's status, only its owning customer.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking is a dependent record owned by a customer.
type Booking struct {
	ID         string    `json:"id" db:"id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	CustomerID string    `json:"customer_id" db:"customer_id"`
	Amount     float64   `json:"amount" db:"amount"`
	Status     string    `json:"status" db:"status"`
	StartsAt   time.Time `json:"starts_at" db:"starts_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// BookingAggregate is the authoritative count/sum over a customer's bookings.
type BookingAggregate struct {
	Count       int     `db:"booking_count"`
	TotalAmount float64 `db:"total_amount"`
}
