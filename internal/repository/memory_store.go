package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// MemoryStore keeps flights and bookings in process, with one mutex per row.
// It honors the same contract as the Postgres store: row locks are held from
// the ForUpdate call until the transaction ends, and staged writes become
// visible only at commit.
type MemoryStore struct {
	mu       sync.RWMutex
	flights  map[int64]*flightRecord
	bookings map[string]*bookingRecord
	nextID   int64
}

type flightRecord struct {
	mu sync.Mutex
	f  domain.Flight
}

type bookingRecord struct {
	mu sync.Mutex
	b  domain.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights:  make(map[int64]*flightRecord),
		bookings: make(map[string]*bookingRecord),
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{
		store:    s,
		flights:  make(map[int64]*txFlight),
		bookings: make(map[string]*txBooking),
	}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) SearchFlights(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time) ([]domain.Flight, error) {
	s.mu.RLock()
	records := make([]*flightRecord, 0, len(s.flights))
	for _, rec := range s.flights {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	origin = strings.ToLower(origin)
	destination = strings.ToLower(destination)

	matches := make([]domain.Flight, 0)
	for _, rec := range records {
		rec.mu.Lock()
		f := rec.f
		rec.mu.Unlock()

		if !strings.Contains(strings.ToLower(f.Origin), origin) ||
			!strings.Contains(strings.ToLower(f.Destination), destination) {
			continue
		}
		if f.Departure.Before(dayStart) || !f.Departure.Before(dayEnd) {
			continue
		}
		if f.SeatsAvailable <= 0 {
			continue
		}
		matches = append(matches, f)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Departure.Before(matches[j].Departure) })
	return matches, nil
}

func (s *MemoryStore) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	s.mu.RLock()
	records := make([]*flightRecord, 0, len(s.flights))
	for _, rec := range s.flights {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	flights := make([]domain.Flight, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		flights = append(flights, rec.f)
		rec.mu.Unlock()
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].Departure.Before(flights[j].Departure) })
	return flights, nil
}

func (s *MemoryStore) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	s.mu.RLock()
	rec, ok := s.flights[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	rec.mu.Lock()
	f := rec.f
	rec.mu.Unlock()
	return &f, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, pnr string) (*domain.Booking, error) {
	rec, err := s.lookupBookingLocked(pnr)
	if err != nil {
		return nil, err
	}
	b := rec.b
	rec.mu.Unlock()
	return &b, nil
}

func (s *MemoryStore) CreateFlight(ctx context.Context, f *domain.Flight) error {
	if f.TotalSeats <= 0 || f.SeatsAvailable < 0 || f.SeatsAvailable > f.TotalSeats {
		return domain.ErrSeatInvariant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f.ID = s.nextID
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	s.flights[f.ID] = &flightRecord{f: *f}
	return nil
}

func (s *MemoryStore) CountFlights(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flights), nil
}

// lookupBookingLocked resolves a PNR to its live record and returns it with
// its mutex held. A record can disappear between the map read and the lock
// acquisition when the inserting transaction rolls back, so the map is
// re-checked after locking.
func (s *MemoryStore) lookupBookingLocked(pnr string) (*bookingRecord, error) {
	key := strings.ToUpper(pnr)
	for {
		s.mu.RLock()
		rec, ok := s.bookings[key]
		s.mu.RUnlock()
		if !ok {
			return nil, domain.ErrBookingNotFound
		}
		rec.mu.Lock()
		s.mu.RLock()
		current := s.bookings[key]
		s.mu.RUnlock()
		if current == rec {
			return rec, nil
		}
		rec.mu.Unlock()
	}
}

type txFlight struct {
	rec    *flightRecord
	staged domain.Flight
}

type txBooking struct {
	rec      *bookingRecord
	staged   domain.Booking
	inserted bool
}

type memTx struct {
	store    *MemoryStore
	flights  map[int64]*txFlight
	bookings map[string]*txBooking
}

func (tx *memTx) commit() {
	for _, tb := range tx.bookings {
		tb.rec.b = tb.staged
		tb.rec.mu.Unlock()
	}
	for _, tf := range tx.flights {
		tf.rec.f = tf.staged
		tf.rec.mu.Unlock()
	}
}

func (tx *memTx) rollback() {
	for key, tb := range tx.bookings {
		if tb.inserted {
			tx.store.mu.Lock()
			delete(tx.store.bookings, key)
			tx.store.mu.Unlock()
		}
		tb.rec.mu.Unlock()
	}
	for _, tf := range tx.flights {
		tf.rec.mu.Unlock()
	}
}

func (tx *memTx) FlightForUpdate(ctx context.Context, id int64) (*domain.Flight, error) {
	tf, err := tx.lockFlight(id)
	if err != nil {
		return nil, err
	}
	f := tf.staged
	return &f, nil
}

func (tx *memTx) BookingForUpdate(ctx context.Context, pnr string) (*domain.Booking, error) {
	tb, err := tx.lockBooking(pnr)
	if err != nil {
		return nil, err
	}
	b := tb.staged
	return &b, nil
}

func (tx *memTx) ReserveSeat(ctx context.Context, flightID int64) error {
	tf, err := tx.lockFlight(flightID)
	if err != nil {
		return err
	}
	if tf.staged.SeatsAvailable <= 0 {
		return domain.ErrNoSeatsAvailable
	}
	tf.staged.SeatsAvailable--
	tf.staged.UpdatedAt = time.Now()
	return nil
}

func (tx *memTx) ReleaseSeat(ctx context.Context, flightID int64) error {
	tf, err := tx.lockFlight(flightID)
	if err != nil {
		return err
	}
	if tf.staged.SeatsAvailable >= tf.staged.TotalSeats {
		return domain.ErrSeatInvariant
	}
	tf.staged.SeatsAvailable++
	tf.staged.UpdatedAt = time.Now()
	return nil
}

func (tx *memTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	key := strings.ToUpper(b.PNR)
	if _, held := tx.bookings[key]; held {
		return domain.ErrDuplicatePNR
	}

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	tx.store.mu.Lock()
	if _, exists := tx.store.bookings[key]; exists {
		tx.store.mu.Unlock()
		return domain.ErrDuplicatePNR
	}
	rec := &bookingRecord{b: *b}
	rec.mu.Lock()
	tx.store.bookings[key] = rec
	tx.store.mu.Unlock()

	tx.bookings[key] = &txBooking{rec: rec, staged: *b, inserted: true}
	return nil
}

func (tx *memTx) UpdateBookingStatus(ctx context.Context, pnr string, status domain.BookingStatus) error {
	tb, err := tx.lockBooking(pnr)
	if err != nil {
		return err
	}
	tb.staged.Status = status
	tb.staged.UpdatedAt = time.Now()
	return nil
}

func (tx *memTx) lockFlight(id int64) (*txFlight, error) {
	if tf, ok := tx.flights[id]; ok {
		return tf, nil
	}
	tx.store.mu.RLock()
	rec, ok := tx.store.flights[id]
	tx.store.mu.RUnlock()
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	rec.mu.Lock()
	tf := &txFlight{rec: rec, staged: rec.f}
	tx.flights[id] = tf
	return tf, nil
}

func (tx *memTx) lockBooking(pnr string) (*txBooking, error) {
	key := strings.ToUpper(pnr)
	if tb, ok := tx.bookings[key]; ok {
		return tb, nil
	}
	rec, err := tx.store.lookupBookingLocked(pnr)
	if err != nil {
		return nil, err
	}
	tb := &txBooking{rec: rec, staged: rec.b}
	tx.bookings[key] = tb
	return tb, nil
}

var _ Store = (*MemoryStore)(nil)
var _ Tx = (*memTx)(nil)
