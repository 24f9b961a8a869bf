package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightQuoteResponse struct {
	FlightID       int64     `json:"flight_id"`
	FlightNo       string    `json:"flight_no"`
	Airline        string    `json:"airline_name"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Departure      time.Time `json:"departure"`
	Arrival        time.Time `json:"arrival"`
	DurationHours  float64   `json:"duration_hours"`
	DynamicPrice   float64   `json:"dynamic_price"`
	SeatsAvailable int       `json:"seats_available"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
}

func (h *FlightHandler) search(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	rawDate := c.Query("date")

	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		writeError(c, fmt.Errorf("%w: invalid date format, use YYYY-MM-DD", domain.ErrInvalidInput))
		return
	}

	quotes, err := h.service.Search(c.Request.Context(), flights.SearchInput{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		SortBy:      c.DefaultQuery("sort_by", flights.SortByPrice),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]flightQuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, flightQuoteResponse{
			FlightID:       q.FlightID,
			FlightNo:       q.FlightNo,
			Airline:        q.Airline,
			Origin:         q.Origin,
			Destination:    q.Destination,
			Departure:      q.Departure,
			Arrival:        q.Arrival,
			DurationHours:  q.DurationHours,
			DynamicPrice:   domain.AmountFromCents(q.PriceCents),
			SeatsAvailable: q.SeatsAvailable,
		})
	}
	c.JSON(http.StatusOK, out)
}
