package simulator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"go.uber.org/zap"
)

// Simulator models outside demand: after a warm-up it repeatedly takes one
// seat from a random flight that still has seats and a future departure. It
// goes through the same locked ReserveSeat primitive as the booking path, so
// it can never drive a counter negative. Iteration errors are logged and
// swallowed; only context cancellation stops the loop.
type Simulator struct {
	store       repository.Store
	log         *zap.Logger
	warmup      time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	rng         *rand.Rand
	now         func() time.Time
}

type Option func(*Simulator)

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewSource(seed)) }
}

func New(store repository.Store, log *zap.Logger, warmup, minInterval, maxInterval time.Duration, opts ...Option) *Simulator {
	s := &Simulator{
		store:       store,
		log:         log.With(zap.String("component", "simulator")),
		warmup:      warmup,
		minInterval: minInterval,
		maxInterval: maxInterval,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	if !s.sleep(ctx, s.warmup) {
		return
	}
	for {
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("simulator iteration", zap.Error(err))
		}
		if !s.sleep(ctx, s.nextInterval()) {
			return
		}
	}
}

// Tick performs one simulated purchase. No eligible flight is not an error.
func (s *Simulator) Tick(ctx context.Context) error {
	flights, err := s.store.ListFlights(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	eligible := flights[:0]
	for _, f := range flights {
		if f.SeatsAvailable > 0 && f.Departure.After(now) {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	pick := eligible[s.rng.Intn(len(eligible))]

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.ReserveSeat(ctx, pick.ID)
	})
	if err != nil {
		// The flight may have sold out since the snapshot; try again next tick.
		if errors.Is(err, domain.ErrNoSeatsAvailable) {
			return nil
		}
		return err
	}

	s.log.Info("market demand took a seat",
		zap.String("flight_no", pick.FlightNo),
		zap.Int("seats_remaining", pick.SeatsAvailable-1))
	return nil
}

func (s *Simulator) nextInterval() time.Duration {
	if s.maxInterval <= s.minInterval {
		return s.minInterval
	}
	return s.minInterval + time.Duration(s.rng.Int63n(int64(s.maxInterval-s.minInterval)))
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
