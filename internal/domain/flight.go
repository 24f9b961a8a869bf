package domain

import "time"

type Flight struct {
	ID             int64     `json:"id"`
	FlightNo       string    `json:"flight_no"`
	Airline        string    `json:"airline"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Departure      time.Time `json:"departure"`
	Arrival        time.Time `json:"arrival"`
	BaseFareCents  int64     `json:"base_fare_cents"`
	TotalSeats     int       `json:"total_seats"`
	SeatsAvailable int       `json:"seats_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (f Flight) Duration() time.Duration {
	return f.Arrival.Sub(f.Departure)
}
