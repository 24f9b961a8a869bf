package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlight(t *testing.T, store *MemoryStore, seats int) *domain.Flight {
	t.Helper()
	departure := time.Now().AddDate(0, 0, 30)
	f := &domain.Flight{
		FlightNo:       "AI101",
		Airline:        "Air India",
		Origin:         "Delhi",
		Destination:    "Mumbai",
		Departure:      departure,
		Arrival:        departure.Add(2 * time.Hour),
		BaseFareCents:  800000,
		TotalSeats:     seats,
		SeatsAvailable: seats,
	}
	require.NoError(t, store.CreateFlight(context.Background(), f))
	return f
}

func TestMemoryStore_ReserveAndRelease(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, 2)

	err := store.WithTx(ctx, func(tx Tx) error {
		return tx.ReserveSeat(ctx, f.ID)
	})
	require.NoError(t, err)

	got, err := store.GetFlight(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SeatsAvailable)

	err = store.WithTx(ctx, func(tx Tx) error {
		return tx.ReleaseSeat(ctx, f.ID)
	})
	require.NoError(t, err)

	got, err = store.GetFlight(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SeatsAvailable)
}

func TestMemoryStore_ReserveSeat_Exhausted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, 1)

	require.NoError(t, store.WithTx(ctx, func(tx Tx) error { return tx.ReserveSeat(ctx, f.ID) }))

	err := store.WithTx(ctx, func(tx Tx) error { return tx.ReserveSeat(ctx, f.ID) })
	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)
}

func TestMemoryStore_ReleaseSeat_Invariant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, 3)

	err := store.WithTx(ctx, func(tx Tx) error { return tx.ReleaseSeat(ctx, f.ID) })
	assert.ErrorIs(t, err, domain.ErrSeatInvariant)
}

func TestMemoryStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, 5)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx Tx) error {
		if err := tx.ReserveSeat(ctx, f.ID); err != nil {
			return err
		}
		if err := tx.InsertBooking(ctx, &domain.Booking{
			PNR:           "ABC123",
			FlightID:      f.ID,
			PassengerName: "John Doe",
			PriceCents:    500000,
			Status:        domain.BookingStatusPending,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetFlight(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.SeatsAvailable, "seat decrement must roll back")

	_, err = store.GetBooking(ctx, "ABC123")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound, "booking insert must roll back")
}

func TestMemoryStore_DuplicatePNR(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, 5)

	insert := func(pnr string) error {
		return store.WithTx(ctx, func(tx Tx) error {
			return tx.InsertBooking(ctx, &domain.Booking{
				PNR:           pnr,
				FlightID:      f.ID,
				PassengerName: "John Doe",
				PriceCents:    500000,
				Status:        domain.BookingStatusPending,
			})
		})
	}

	require.NoError(t, insert("QW12ER"))
	assert.ErrorIs(t, insert("QW12ER"), domain.ErrDuplicatePNR)
	// PNR uniqueness is case-insensitive.
	assert.ErrorIs(t, insert("qw12er"), domain.ErrDuplicatePNR)
}

func TestMemoryStore_GetBooking_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, 5)

	require.NoError(t, store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertBooking(ctx, &domain.Booking{
			PNR:           "XY34ZZ",
			FlightID:      f.ID,
			PassengerName: "Jane Doe",
			PriceCents:    123400,
			Status:        domain.BookingStatusPending,
		})
	}))

	b, err := store.GetBooking(ctx, "xy34zz")
	require.NoError(t, err)
	assert.Equal(t, "XY34ZZ", b.PNR)
	assert.Equal(t, "Jane Doe", b.PassengerName)
}

func TestMemoryStore_ConcurrentReservations(t *testing.T) {
	// N concurrent reservations against K < N seats: exactly K succeed and
	// the counter ends at zero, never below.
	const seats = 10
	const workers = 50

	ctx := context.Background()
	store := NewMemoryStore()
	f := newTestFlight(t, store, seats)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, exhausted := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithTx(ctx, func(tx Tx) error {
				flight, err := tx.FlightForUpdate(ctx, f.ID)
				if err != nil {
					return err
				}
				if flight.SeatsAvailable <= 0 {
					return domain.ErrNoSeatsAvailable
				}
				return tx.ReserveSeat(ctx, f.ID)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrNoSeatsAvailable):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, seats, succeeded)
	assert.Equal(t, workers-seats, exhausted)

	got, err := store.GetFlight(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.SeatsAvailable)
}

func TestMemoryStore_SearchFlights(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	day := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 30)
	mk := func(no, origin, dest string, departure time.Time, seats int) {
		f := &domain.Flight{
			FlightNo: no, Airline: "Test Air", Origin: origin, Destination: dest,
			Departure: departure, Arrival: departure.Add(2 * time.Hour),
			BaseFareCents: 500000, TotalSeats: 100, SeatsAvailable: seats,
		}
		require.NoError(t, store.CreateFlight(ctx, f))
	}

	mk("FL1", "Delhi", "Mumbai", day.Add(10*time.Hour), 50)
	mk("FL2", "Delhi", "Mumbai", day.Add(15*time.Hour), 0)            // sold out
	mk("FL3", "Delhi", "Mumbai", day.AddDate(0, 0, 1).Add(time.Hour), 50) // next day
	mk("FL4", "Delhi", "Chennai", day.Add(12*time.Hour), 50)          // other route

	matches, err := store.SearchFlights(ctx, "delhi", "mum", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "FL1", matches[0].FlightNo)

	// A day with no flights is an empty result, not an error.
	empty, err := store.SearchFlights(ctx, "Delhi", "Mumbai", day.AddDate(0, 0, 100), day.AddDate(0, 0, 101))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_CreateFlight_RejectsBadCounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	departure := time.Now().AddDate(0, 0, 10)
	err := store.CreateFlight(ctx, &domain.Flight{
		FlightNo: "BAD1", Origin: "A", Destination: "B",
		Departure: departure, Arrival: departure.Add(time.Hour),
		TotalSeats: 100, SeatsAvailable: 101,
	})
	assert.ErrorIs(t, err, domain.ErrSeatInvariant)
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	n, err := Seed(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	again, err := Seed(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, again)

	flights, err := store.ListFlights(ctx)
	require.NoError(t, err)
	require.Len(t, flights, 6)
	for _, f := range flights {
		assert.True(t, f.Arrival.After(f.Departure), fmt.Sprintf("flight %s schedule", f.FlightNo))
		assert.Positive(t, f.BaseFareCents)
		assert.LessOrEqual(t, f.SeatsAvailable, f.TotalSeats)
	}
}
