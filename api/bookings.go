package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID  int64 `json:"flight_id"`
	Passenger struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"passenger"`
}

type bookingResponse struct {
	PNR           string    `json:"pnr"`
	FlightNo      string    `json:"flight_no"`
	PassengerName string    `json:"passenger_name"`
	Status        string    `json:"status"`
	Price         float64   `json:"price"`
	Departure     time.Time `json:"departure"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/:pnr/pay", h.pay)
	router.GET("/:pnr", h.get)
	router.GET("/:pnr/receipt", h.get)
	router.DELETE("/:pnr", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error()))
		return
	}

	snap, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:  req.FlightID,
		FirstName: req.Passenger.FirstName,
		LastName:  req.Passenger.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(snap))
}

func (h *BookingHandler) pay(c *gin.Context) {
	outcome, err := h.service.PayBooking(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pnr":     outcome.PNR,
		"status":  string(outcome.Status),
		"message": outcome.Message,
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	snap, err := h.service.GetBooking(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(snap))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	result, err := h.service.CancelBooking(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

func toBookingResponse(snap *booking.Snapshot) bookingResponse {
	return bookingResponse{
		PNR:           snap.PNR,
		FlightNo:      snap.FlightNo,
		PassengerName: snap.PassengerName,
		Status:        string(snap.Status),
		Price:         domain.AmountFromCents(snap.PriceCents),
		Departure:     snap.Departure,
		Origin:        snap.Origin,
		Destination:   snap.Destination,
	}
}
