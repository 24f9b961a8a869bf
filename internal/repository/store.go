package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// Store is the persistence boundary for flights and bookings. Lifecycle
// operations run inside WithTx so that every read-modify-write on a flight's
// seat counter or a booking's status is covered by an exclusive row
// acquisition, and cross-entity mutations commit as one unit.
type Store interface {
	// WithTx runs fn as one atomic unit. If fn returns an error nothing it
	// did is visible to other operations. Row locks taken inside fn are held
	// until WithTx returns.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// SearchFlights returns flights matching the route (substring,
	// case-insensitive) whose departure falls in [dayStart, dayEnd) and that
	// still have seats. A miss is an empty slice, not an error.
	SearchFlights(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time) ([]domain.Flight, error)

	// ListFlights returns all flights, departure-ordered.
	ListFlights(ctx context.Context) ([]domain.Flight, error)

	GetFlight(ctx context.Context, id int64) (*domain.Flight, error)

	// GetBooking looks up by PNR, case-insensitively.
	GetBooking(ctx context.Context, pnr string) (*domain.Booking, error)

	// CreateFlight inserts a flight; used by seeding only.
	CreateFlight(ctx context.Context, f *domain.Flight) error

	// CountFlights supports the seed-only-when-empty check.
	CountFlights(ctx context.Context) (int, error)
}

// Tx is the view of the store inside one atomic unit.
//
// Lock ordering: an operation that needs both a booking row and a flight row
// must lock the booking first, then the flight. Every caller follows that
// order, which rules out lock cycles.
type Tx interface {
	// FlightForUpdate locks the flight row and returns its current state.
	FlightForUpdate(ctx context.Context, id int64) (*domain.Flight, error)

	// BookingForUpdate locks the booking row (PNR match is case-insensitive).
	BookingForUpdate(ctx context.Context, pnr string) (*domain.Booking, error)

	// ReserveSeat decrements seats_available by one, failing with
	// domain.ErrNoSeatsAvailable when the flight is full.
	ReserveSeat(ctx context.Context, flightID int64) error

	// ReleaseSeat increments seats_available by one, failing with
	// domain.ErrSeatInvariant if that would exceed total_seats.
	ReleaseSeat(ctx context.Context, flightID int64) error

	// InsertBooking adds a new booking, failing with domain.ErrDuplicatePNR
	// on a code collision.
	InsertBooking(ctx context.Context, b *domain.Booking) error

	// UpdateBookingStatus sets the status of an existing booking.
	UpdateBookingStatus(ctx context.Context, pnr string, status domain.BookingStatus) error
}
