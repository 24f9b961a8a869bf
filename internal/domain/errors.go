package domain

import "errors"

var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNoSeatsAvailable = errors.New("no seats available")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrDuplicatePNR is internal: create retries with a fresh code and the
	// caller never sees it.
	ErrDuplicatePNR = errors.New("pnr already exists")

	// ErrSeatInvariant means a seat release would push seats_available past
	// total_seats. It indicates a lifecycle bug, not a user error.
	ErrSeatInvariant = errors.New("seat count out of range")
)
