package flights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"go.uber.org/zap"
)

const (
	SortByPrice    = "price"
	SortByDuration = "duration"
)

type FlightUseCase interface {
	Search(ctx context.Context, input SearchInput) ([]Quote, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

// Cache sits in front of the store for search queries. Flight rows only;
// quotes are priced per request.
type Cache interface {
	GetSearch(ctx context.Context, origin, destination string, day time.Time) ([]domain.Flight, error)
	SetSearch(ctx context.Context, origin, destination string, day time.Time, flights []domain.Flight) error
}

type SearchInput struct {
	Origin      string
	Destination string
	Date        time.Time
	SortBy      string
}

// Quote is one search result: the flight plus a live dynamic price.
type Quote struct {
	FlightID       int64     `json:"flight_id"`
	FlightNo       string    `json:"flight_no"`
	Airline        string    `json:"airline"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Departure      time.Time `json:"departure"`
	Arrival        time.Time `json:"arrival"`
	DurationHours  float64   `json:"duration_hours"`
	PriceCents     int64     `json:"price_cents"`
	SeatsAvailable int       `json:"seats_available"`
}

type FlightService struct {
	store  repository.Store
	pricer *pricing.Engine
	cache  Cache
	log    *zap.Logger
}

func NewFlightService(store repository.Store, pricer *pricing.Engine, cache Cache, log *zap.Logger) *FlightService {
	return &FlightService{
		store:  store,
		pricer: pricer,
		cache:  cache,
		log:    log.With(zap.String("service", "flights")),
	}
}

// Search returns quotes for flights on the route departing within the given
// day that still have seats. A date with no flights is an empty result, not
// an error.
func (s *FlightService) Search(ctx context.Context, input SearchInput) ([]Quote, error) {
	origin := strings.TrimSpace(input.Origin)
	destination := strings.TrimSpace(input.Destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidInput)
	}

	dayStart := input.Date.Truncate(24 * time.Hour)
	dayEnd := dayStart.AddDate(0, 0, 1)

	matches, err := s.searchCached(ctx, origin, destination, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	quotes := make([]Quote, 0, len(matches))
	for _, f := range matches {
		price := s.pricer.Quote(f.BaseFareCents, f.SeatsAvailable, f.TotalSeats, f.Departure)
		quotes = append(quotes, Quote{
			FlightID:       f.ID,
			FlightNo:       f.FlightNo,
			Airline:        f.Airline,
			Origin:         f.Origin,
			Destination:    f.Destination,
			Departure:      f.Departure,
			Arrival:        f.Arrival,
			DurationHours:  math.Round(f.Duration().Hours()*100) / 100,
			PriceCents:     price,
			SeatsAvailable: f.SeatsAvailable,
		})
	}

	if input.SortBy == SortByDuration {
		sort.Slice(quotes, func(i, j int) bool { return quotes[i].DurationHours < quotes[j].DurationHours })
	} else {
		sort.Slice(quotes, func(i, j int) bool { return quotes[i].PriceCents < quotes[j].PriceCents })
	}
	return quotes, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.store.GetFlight(ctx, id)
}

func (s *FlightService) searchCached(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, origin, destination, dayStart); err == nil && cached != nil {
			return cached, nil
		}
	}

	matches, err := s.store.SearchFlights(ctx, origin, destination, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, origin, destination, dayStart, matches); err != nil {
			s.log.Warn("cache search results", zap.Error(err))
		}
	}
	return matches, nil
}

var _ FlightUseCase = (*FlightService)(nil)
