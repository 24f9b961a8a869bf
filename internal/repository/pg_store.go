package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

const flightColumns = `id, flight_no, airline, origin, destination, departure, arrival, base_fare_cents, total_seats, seats_available, created_at, updated_at`
const bookingColumns = `pnr, flight_id, passenger_name, price_cents, status, created_at, updated_at`

// PGStore backs the Store contract with Postgres. Row locks come from
// SELECT ... FOR UPDATE inside a transaction, the seats_available range is
// additionally enforced by a CHECK constraint (migrations/0001_init.sql).
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) SearchFlights(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time) ([]domain.Flight, error) {
	rows, err := s.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE origin ILIKE '%' || $1 || '%'
		  AND destination ILIKE '%' || $2 || '%'
		  AND departure >= $3 AND departure < $4
		  AND seats_available > 0
		ORDER BY departure`, origin, destination, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (s *PGStore) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	rows, err := s.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (s *PGStore) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	row := s.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	return scanFlight(row)
}

func (s *PGStore) GetBooking(ctx context.Context, pnr string) (*domain.Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE upper(pnr)=upper($1)`, pnr)
	return scanBooking(row)
}

func (s *PGStore) CreateFlight(ctx context.Context, f *domain.Flight) error {
	return s.db.QueryRow(ctx, `INSERT INTO flights (flight_no, airline, origin, destination, departure, arrival, base_fare_cents, total_seats, seats_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		f.FlightNo, f.Airline, f.Origin, f.Destination, f.Departure, f.Arrival, f.BaseFareCents, f.TotalSeats, f.SeatsAvailable).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (s *PGStore) CountFlights(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM flights`).Scan(&n)
	return n, err
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) FlightForUpdate(ctx context.Context, id int64) (*domain.Flight, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, id)
	return scanFlight(row)
}

func (t *pgTx) BookingForUpdate(ctx context.Context, pnr string) (*domain.Booking, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE upper(pnr)=upper($1) FOR UPDATE`, pnr)
	return scanBooking(row)
}

func (t *pgTx) ReserveSeat(ctx context.Context, flightID int64) error {
	res, err := t.tx.Exec(ctx, `UPDATE flights SET seats_available = seats_available - 1, updated_at = now() WHERE id=$1 AND seats_available > 0`, flightID)
	if err != nil {
		return mapPGError(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNoSeatsAvailable
	}
	return nil
}

func (t *pgTx) ReleaseSeat(ctx context.Context, flightID int64) error {
	res, err := t.tx.Exec(ctx, `UPDATE flights SET seats_available = seats_available + 1, updated_at = now() WHERE id=$1 AND seats_available < total_seats`, flightID)
	if err != nil {
		return mapPGError(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrSeatInvariant
	}
	return nil
}

func (t *pgTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings (pnr, flight_id, passenger_name, price_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		b.PNR, b.FlightID, b.PassengerName, b.PriceCents, b.Status).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapPGError(err)
}

func (t *pgTx) UpdateBookingStatus(ctx context.Context, pnr string, status domain.BookingStatus) error {
	res, err := t.tx.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE upper(pnr)=upper($2)`, status, pnr)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNo, &f.Airline, &f.Origin, &f.Destination, &f.Departure, &f.Arrival, &f.BaseFareCents, &f.TotalSeats, &f.SeatsAvailable, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func scanFlights(rows pgx.Rows) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.FlightNo, &f.Airline, &f.Origin, &f.Destination, &f.Departure, &f.Arrival, &f.BaseFareCents, &f.TotalSeats, &f.SeatsAvailable, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.PNR, &b.FlightID, &b.PassengerName, &b.PriceCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrDuplicatePNR
		case pgCheckViolation:
			return domain.ErrSeatInvariant
		}
	}
	return err
}

var _ Store = (*PGStore)(nil)
var _ Tx = (*pgTx)(nil)
