package pricing

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	demandMin = 0.98
	demandMax = 1.08
)

// DemandSource yields the market-noise multiplier for one quote. Implementations
// must return a value in [0.98, 1.08] and draw it fresh on every call.
type DemandSource interface {
	Demand() float64
}

// RandomDemand is the production source: a uniform draw per call.
type RandomDemand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomDemand() *RandomDemand {
	return &RandomDemand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (d *RandomDemand) Demand() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return demandMin + d.rng.Float64()*(demandMax-demandMin)
}

// FixedDemand pins the multiplier, for deterministic tests.
type FixedDemand float64

func (d FixedDemand) Demand() float64 { return float64(d) }

// Engine computes dynamic fares from occupancy and time to departure.
type Engine struct {
	demand DemandSource
	now    func() time.Time
}

type Option func(*Engine)

func WithDemandSource(d DemandSource) Option {
	return func(e *Engine) { e.demand = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		demand: NewRandomDemand(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quote prices one seat in cents. Callers pass the pre-decrement seat counts;
// the quote stamped on a booking at create time never changes afterwards.
func (e *Engine) Quote(baseFareCents int64, seatsAvailable, totalSeats int, departure time.Time) int64 {
	occupancy := float64(totalSeats-seatsAvailable) / float64(totalSeats)

	var seatFactor float64
	switch {
	case occupancy < 0.4:
		seatFactor = 0.9
	case occupancy < 0.8:
		seatFactor = 1.2
	default:
		seatFactor = 1.5
	}

	days := daysToDeparture(departure, e.now())
	var timeFactor float64
	switch {
	case days > 45:
		timeFactor = 0.85
	case days > 10:
		timeFactor = 1.1
	default:
		timeFactor = 1.4
	}

	price := float64(baseFareCents) * seatFactor * timeFactor * e.demand.Demand()
	return int64(math.Round(price))
}

func daysToDeparture(departure, now time.Time) int {
	return int(math.Floor(departure.Sub(now).Hours() / 24))
}
