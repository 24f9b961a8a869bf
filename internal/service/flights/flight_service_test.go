package flights

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCache struct {
	flights []domain.Flight
	sets    int
}

func (c *stubCache) GetSearch(ctx context.Context, origin, destination string, day time.Time) ([]domain.Flight, error) {
	return c.flights, nil
}

func (c *stubCache) SetSearch(ctx context.Context, origin, destination string, day time.Time, flights []domain.Flight) error {
	c.flights = flights
	c.sets++
	return nil
}

func newSearchFixture(t *testing.T) (*repository.MemoryStore, time.Time) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	day := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 30)

	mk := func(no string, hour, durationMin int, fareCents int64, seats int) {
		departure := day.Add(time.Duration(hour) * time.Hour)
		require.NoError(t, store.CreateFlight(ctx, &domain.Flight{
			FlightNo: no, Airline: "Test Air", Origin: "Delhi", Destination: "Mumbai",
			Departure: departure, Arrival: departure.Add(time.Duration(durationMin) * time.Minute),
			BaseFareCents: fareCents, TotalSeats: 100, SeatsAvailable: seats,
		}))
	}
	mk("CHEAP1", 8, 180, 300000, 90) // cheapest, longest
	mk("FAST1", 10, 90, 500000, 90)  // fastest, pricier
	mk("FULL1", 12, 120, 100000, 0)  // sold out, excluded

	return store, day
}

func newTestEngine() *pricing.Engine {
	return pricing.NewEngine(pricing.WithDemandSource(pricing.FixedDemand(1.0)))
}

func TestSearch_SortsByPriceByDefault(t *testing.T) {
	store, day := newSearchFixture(t)
	svc := NewFlightService(store, newTestEngine(), nil, zap.NewNop())

	quotes, err := svc.Search(context.Background(), SearchInput{Origin: "Delhi", Destination: "Mumbai", Date: day})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "CHEAP1", quotes[0].FlightNo)
	assert.Equal(t, "FAST1", quotes[1].FlightNo)
	assert.Less(t, quotes[0].PriceCents, quotes[1].PriceCents)
}

func TestSearch_SortsByDuration(t *testing.T) {
	store, day := newSearchFixture(t)
	svc := NewFlightService(store, newTestEngine(), nil, zap.NewNop())

	quotes, err := svc.Search(context.Background(), SearchInput{Origin: "Delhi", Destination: "Mumbai", Date: day, SortBy: SortByDuration})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "FAST1", quotes[0].FlightNo)
	assert.Equal(t, 1.5, quotes[0].DurationHours)
	assert.Equal(t, "CHEAP1", quotes[1].FlightNo)
	assert.Equal(t, 3.0, quotes[1].DurationHours)
}

func TestSearch_EmptyDayIsNotAnError(t *testing.T) {
	store, day := newSearchFixture(t)
	svc := NewFlightService(store, newTestEngine(), nil, zap.NewNop())

	quotes, err := svc.Search(context.Background(), SearchInput{Origin: "Delhi", Destination: "Mumbai", Date: day.AddDate(0, 0, 60)})
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestSearch_RequiresRoute(t *testing.T) {
	store, day := newSearchFixture(t)
	svc := NewFlightService(store, newTestEngine(), nil, zap.NewNop())

	_, err := svc.Search(context.Background(), SearchInput{Origin: "", Destination: "Mumbai", Date: day})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_UsesCache(t *testing.T) {
	store, day := newSearchFixture(t)
	cache := &stubCache{}
	svc := NewFlightService(store, newTestEngine(), cache, zap.NewNop())

	first, err := svc.Search(context.Background(), SearchInput{Origin: "Delhi", Destination: "Mumbai", Date: day})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, cache.sets)

	// Second search is served from the cache; quotes are still re-priced.
	second, err := svc.Search(context.Background(), SearchInput{Origin: "Delhi", Destination: "Mumbai", Date: day})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, 1, cache.sets)
}
