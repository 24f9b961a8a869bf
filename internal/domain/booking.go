package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusFailed    BookingStatus = "FAILED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// HoldsSeat reports whether a booking in this status still counts against
// its flight's available inventory.
func (s BookingStatus) HoldsSeat() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Terminal statuses are never transitioned out of.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusFailed || s == BookingStatusCancelled
}

type Booking struct {
	PNR           string        `json:"pnr"`
	FlightID      int64         `json:"flight_id"`
	PassengerName string        `json:"passenger_name"`
	PriceCents    int64         `json:"price_cents"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
