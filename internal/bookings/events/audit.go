package events

import (
	"context"
	"fmt"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
)

// NewAuditHandler logs every booking event read from the topic. A payload
// that does not decode is a permanent error, so the consumer skips it without
// retrying.
func NewAuditHandler(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode booking event", err)
		}
		if event.Type == "" || event.BookingID == "" {
			return kafka.NewPermanentError(fmt.Sprintf("booking event %q is missing type or booking id", event.ID), nil)
		}

		log.Info("Booking event",
			"event_id", event.ID,
			"type", event.Type,
			"booking_id", event.BookingID,
			"room_id", event.RoomID,
			"status", event.Status,
			"check_in_date", event.CheckInDate,
			"check_out_date", event.CheckOutDate,
			"occurred_at", event.OccurredAt,
			"correlation_id", event.CorrelationID,
		)
		return nil
	}
}
