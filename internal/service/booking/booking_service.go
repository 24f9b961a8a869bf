package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pnrAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	pnrLength      = 6
	maxPNRAttempts = 5
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*Snapshot, error)
	PayBooking(ctx context.Context, pnr string) (*PaymentOutcome, error)
	CancelBooking(ctx context.Context, pnr string) (*CancelResult, error)
	GetBooking(ctx context.Context, pnr string) (*Snapshot, error)
}

// PaymentDecider decides one payment attempt. The default is an unbiased coin
// flip; tests inject deterministic outcomes.
type PaymentDecider interface {
	Approve(pnr string) bool
}

type CoinFlip struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewCoinFlip() *CoinFlip {
	return &CoinFlip{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (c *CoinFlip) Approve(string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(2) == 0
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	FlightID  int64  `json:"flight_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Snapshot is a booking merged with its flight's route and schedule, the
// shape every read path returns.
type Snapshot struct {
	PNR           string               `json:"pnr"`
	FlightID      int64                `json:"flight_id"`
	FlightNo      string               `json:"flight_no"`
	Airline       string               `json:"airline"`
	PassengerName string               `json:"passenger_name"`
	Status        domain.BookingStatus `json:"status"`
	PriceCents    int64                `json:"price_cents"`
	Origin        string               `json:"origin"`
	Destination   string               `json:"destination"`
	Departure     time.Time            `json:"departure"`
}

type PaymentOutcome struct {
	PNR     string               `json:"pnr"`
	Status  domain.BookingStatus `json:"status"`
	Message string               `json:"message"`
}

type CancelResult struct {
	PNR     string `json:"pnr"`
	Message string `json:"message"`
}

// BookingService drives the booking state machine:
//
//	Pending -> Confirmed | Failed | Cancelled
//	Confirmed -> Cancelled
//
// Failed and Cancelled are terminal. Every seat taken at create time is given
// back exactly once, unless the booking stays Confirmed.
type BookingService struct {
	store              repository.Store
	pricer             *pricing.Engine
	payments           PaymentDecider
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	log                *zap.Logger

	pnrMu  sync.Mutex
	pnrRng *rand.Rand
}

type BookingServiceOption func(*BookingService)

func WithPaymentDecider(d PaymentDecider) BookingServiceOption {
	return func(s *BookingService) { s.payments = d }
}

func WithProducer(p Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) { s.notificationsTopic = topic }
}

func NewBookingService(store repository.Store, pricer *pricing.Engine, log *zap.Logger, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		store:    store,
		pricer:   pricer,
		payments: NewCoinFlip(),
		log:      log.With(zap.String("service", "booking")),
		pnrRng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking takes one seat on the flight and records a Pending booking
// priced at the pre-decrement occupancy. Seat decrement and booking insert
// commit as one unit; a PNR collision retries the whole unit with a fresh
// code.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*Snapshot, error) {
	passenger := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName))
	if passenger == "" {
		return nil, fmt.Errorf("%w: passenger name is required", domain.ErrInvalidInput)
	}

	var snapshot *Snapshot
	var lastErr error
	for attempt := 0; attempt < maxPNRAttempts; attempt++ {
		pnr := s.newPNR()
		err := s.store.WithTx(ctx, func(tx repository.Tx) error {
			flight, err := tx.FlightForUpdate(ctx, input.FlightID)
			if err != nil {
				return err
			}
			if flight.SeatsAvailable <= 0 {
				return domain.ErrNoSeatsAvailable
			}

			price := s.pricer.Quote(flight.BaseFareCents, flight.SeatsAvailable, flight.TotalSeats, flight.Departure)

			if err := tx.ReserveSeat(ctx, flight.ID); err != nil {
				return err
			}

			b := &domain.Booking{
				PNR:           pnr,
				FlightID:      flight.ID,
				PassengerName: passenger,
				PriceCents:    price,
				Status:        domain.BookingStatusPending,
			}
			if err := tx.InsertBooking(ctx, b); err != nil {
				return err
			}

			snapshot = newSnapshot(b, flight)
			return nil
		})
		if err == nil {
			s.publish(ctx, "booking_created", snapshot)
			s.log.Info("booking created",
				zap.String("pnr", snapshot.PNR),
				zap.Int64("flight_id", input.FlightID),
				zap.Int64("price_cents", snapshot.PriceCents))
			return snapshot, nil
		}
		if !errors.Is(err, domain.ErrDuplicatePNR) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("generate unique pnr: %w", lastErr)
}

// PayBooking draws a payment outcome for a Pending booking. Paying an already
// Confirmed booking is idempotent; terminal bookings are left untouched. A
// failed payment releases the held seat in the same transaction.
func (s *BookingService) PayBooking(ctx context.Context, pnr string) (*PaymentOutcome, error) {
	var outcome *PaymentOutcome
	var snapshotStatus domain.BookingStatus
	var paid *domain.Booking

	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		b, err := tx.BookingForUpdate(ctx, pnr)
		if err != nil {
			return err
		}
		snapshotStatus = b.Status

		switch b.Status {
		case domain.BookingStatusConfirmed:
			outcome = &PaymentOutcome{PNR: b.PNR, Status: b.Status, Message: "This booking is already paid for."}
			return nil
		case domain.BookingStatusFailed, domain.BookingStatusCancelled:
			outcome = &PaymentOutcome{PNR: b.PNR, Status: b.Status, Message: "This booking is no longer payable."}
			return nil
		}

		if s.payments.Approve(b.PNR) {
			if err := tx.UpdateBookingStatus(ctx, b.PNR, domain.BookingStatusConfirmed); err != nil {
				return err
			}
			paid = b
			outcome = &PaymentOutcome{PNR: b.PNR, Status: domain.BookingStatusConfirmed, Message: "Payment successful. Your booking is confirmed."}
			return nil
		}

		// Booking lock is held; flight lock comes second, per the global order.
		if err := tx.UpdateBookingStatus(ctx, b.PNR, domain.BookingStatusFailed); err != nil {
			return err
		}
		if err := tx.ReleaseSeat(ctx, b.FlightID); err != nil {
			return err
		}
		paid = b
		outcome = &PaymentOutcome{PNR: b.PNR, Status: domain.BookingStatusFailed, Message: "Payment failed. Your seat has been released."}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSeatInvariant) {
			s.log.Error("seat accounting violated during payment", zap.String("pnr", pnr), zap.Error(err))
		}
		return nil, err
	}

	if paid != nil {
		eventType := "payment_confirmed"
		if outcome.Status == domain.BookingStatusFailed {
			eventType = "payment_failed"
		}
		s.publishBooking(ctx, eventType, paid, outcome.Status)
		s.log.Info("payment processed",
			zap.String("pnr", outcome.PNR),
			zap.String("from", string(snapshotStatus)),
			zap.String("to", string(outcome.Status)))
	}
	return outcome, nil
}

// CancelBooking moves a booking to Cancelled. Pending and Confirmed bookings
// still hold a seat, so cancelling them gives the seat back; a Failed booking
// released its seat when the payment failed.
func (s *BookingService) CancelBooking(ctx context.Context, pnr string) (*CancelResult, error) {
	var cancelled *domain.Booking
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		b, err := tx.BookingForUpdate(ctx, pnr)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingStatusCancelled {
			return domain.ErrAlreadyCancelled
		}

		if b.Status.HoldsSeat() {
			if err := tx.ReleaseSeat(ctx, b.FlightID); err != nil {
				return err
			}
		}
		if err := tx.UpdateBookingStatus(ctx, b.PNR, domain.BookingStatusCancelled); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSeatInvariant) {
			s.log.Error("seat accounting violated during cancellation", zap.String("pnr", pnr), zap.Error(err))
		}
		return nil, err
	}

	s.publishBooking(ctx, "booking_cancelled", cancelled, domain.BookingStatusCancelled)
	s.log.Info("booking cancelled", zap.String("pnr", cancelled.PNR), zap.String("was", string(cancelled.Status)))
	return &CancelResult{PNR: cancelled.PNR, Message: fmt.Sprintf("Booking %s has been cancelled.", cancelled.PNR)}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, pnr string) (*Snapshot, error) {
	b, err := s.store.GetBooking(ctx, pnr)
	if err != nil {
		return nil, err
	}
	flight, err := s.store.GetFlight(ctx, b.FlightID)
	if err != nil {
		return nil, err
	}
	return newSnapshot(b, flight), nil
}

func (s *BookingService) newPNR() string {
	s.pnrMu.Lock()
	defer s.pnrMu.Unlock()
	code := make([]byte, pnrLength)
	for i := range code {
		code[i] = pnrAlphabet[s.pnrRng.Intn(len(pnrAlphabet))]
	}
	return string(code)
}

func newSnapshot(b *domain.Booking, f *domain.Flight) *Snapshot {
	return &Snapshot{
		PNR:           b.PNR,
		FlightID:      f.ID,
		FlightNo:      f.FlightNo,
		Airline:       f.Airline,
		PassengerName: b.PassengerName,
		Status:        b.Status,
		PriceCents:    b.PriceCents,
		Origin:        f.Origin,
		Destination:   f.Destination,
		Departure:     f.Departure,
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, snap *Snapshot) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		PNR:        snap.PNR,
		FlightID:   snap.FlightID,
		Passenger:  snap.PassengerName,
		Status:     string(snap.Status),
		PriceCents: snap.PriceCents,
		OccurredAt: time.Now(),
	}
	s.send(ctx, event)
}

func (s *BookingService) publishBooking(ctx context.Context, eventType string, b *domain.Booking, status domain.BookingStatus) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		PNR:        b.PNR,
		FlightID:   b.FlightID,
		Passenger:  b.PassengerName,
		Status:     string(status),
		PriceCents: b.PriceCents,
		OccurredAt: time.Now(),
	}
	s.send(ctx, event)
}

func (s *BookingService) send(ctx context.Context, event kafka.BookingEvent) {
	if err := s.producer.Publish(ctx, s.bookingTopic, event.PNR, event); err != nil {
		s.log.Warn("publish booking event", zap.String("type", event.Type), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.PNR, event); err != nil {
			s.log.Warn("publish notification event", zap.String("type", event.Type), zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
