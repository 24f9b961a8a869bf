package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

type seedFlight struct {
	flightNo      string
	airline       string
	origin        string
	destination   string
	daysOut       int
	departureHour int
	durationMin   int
	baseFareCents int64
	totalSeats    int
	seatsFree     int
}

// Departures are placed relative to now so the dataset never goes stale.
var seedFlights = []seedFlight{
	{"AI101", "Air India", "Delhi", "Mumbai", 90, 10, 120, 800000, 200, 150},
	{"AI102", "Air India", "Mumbai", "Delhi", 90, 15, 120, 820000, 200, 180},
	{"6E201", "IndiGo", "Delhi", "Chennai", 91, 9, 150, 900000, 180, 160},
	{"6E202", "IndiGo", "Chennai", "Delhi", 91, 13, 150, 910000, 180, 175},
	{"UK301", "Vistara", "Mumbai", "Chennai", 92, 12, 150, 600000, 150, 120},
	{"SG401", "SpiceJet", "Delhi", "Kolkata", 93, 7, 120, 550000, 180, 100},
}

// Seed inserts the initial flight dataset if the store holds no flights yet.
func Seed(ctx context.Context, store Store) (int, error) {
	n, err := store.CountFlights(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	day := time.Now().Truncate(24 * time.Hour)
	inserted := 0
	for _, sf := range seedFlights {
		departure := day.AddDate(0, 0, sf.daysOut).Add(time.Duration(sf.departureHour) * time.Hour)
		f := &domain.Flight{
			FlightNo:       sf.flightNo,
			Airline:        sf.airline,
			Origin:         sf.origin,
			Destination:    sf.destination,
			Departure:      departure,
			Arrival:        departure.Add(time.Duration(sf.durationMin) * time.Minute),
			BaseFareCents:  sf.baseFareCents,
			TotalSeats:     sf.totalSeats,
			SeatsAvailable: sf.seatsFree,
		}
		if err := store.CreateFlight(ctx, f); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
