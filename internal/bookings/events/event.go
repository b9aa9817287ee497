package events

import (
	"context"
	"roombook/pkg/model"
	"time"

	"github.com/google/uuid"
)

const (
	TypeCreated     = "booking.created"
	TypeConfirmed   = "booking.confirmed"
	TypeCancelled   = "booking.cancelled"
	TypeRescheduled = "booking.rescheduled"
	TypeDeleted     = "booking.deleted"

	SchemaVersion = "1"
	Source        = "bookings"
)

// Event is the payload published after a booking write is committed.
type Event struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	BookingID     string     `json:"booking_id"`
	RoomID        string     `json:"room_id"`
	Status        string     `json:"status"`
	CheckInDate   model.Date `json:"check_in_date"`
	CheckOutDate  model.Date `json:"check_out_date"`
	OccurredAt    time.Time  `json:"occurred_at"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

func NewEvent(eventType string, b *model.Booking, at time.Time) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		BookingID:    b.ID,
		RoomID:       b.RoomID,
		Status:       b.Status,
		CheckInDate:  b.CheckInDate,
		CheckOutDate: b.CheckOutDate,
		OccurredAt:   at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher drops every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (noopPublisher) Close() error { return nil }

type correlationKey struct{}

// WithCorrelationID attaches the inbound request id so published events can be
// traced back to it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
