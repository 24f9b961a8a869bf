package email

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender turns booking events into passenger notifications. Delivery is out
// of scope, so notifications are logged instead of handed to a mail gateway.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log.With(zap.String("component", "email"))}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.Info("booking notification",
		zap.String("type", event.Type),
		zap.String("pnr", event.PNR),
		zap.String("passenger", event.Passenger),
		zap.String("status", event.Status),
		zap.Int64("flight_id", event.FlightID),
	)
	return nil
}
