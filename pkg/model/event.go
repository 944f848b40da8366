package model

import "time"

type EventType string

const (
	EventTripCreated      EventType = "trip.created"
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingRejected  EventType = "booking.rejected"
	EventBookingCancelled EventType = "booking.cancelled"
	EventMessagePosted    EventType = "message.posted"
)

// Event is a fact emitted after a successful state change. RecipientID is the
// user who should hear about it, zero when nobody in particular.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	ActorID     int64     `json:"actor_id"`
	RecipientID int64     `json:"recipient_id,omitempty"`
	TripID      int64     `json:"trip_id,omitempty"`
	BookingID   int64     `json:"booking_id,omitempty"`
	Seats       int       `json:"seats,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}
