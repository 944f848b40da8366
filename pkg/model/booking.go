package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
}

// CanTransitionTo reports whether the ledger allows moving from s to next.
// Rejected and cancelled are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID        int64         `json:"id" bson:"_id"`
	TripID    int64         `json:"trip_id" bson:"trip_id"`
	UserID    int64         `json:"user_id" bson:"user_id"`
	Seats     int           `json:"seats" bson:"seats"`
	Status    BookingStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`

	// Trip is filled in for passenger views and never stored.
	Trip *Trip `json:"trip,omitempty" bson:"-"`
}

type BookingInput struct {
	Seats int `json:"seats" validate:"gt=0,lte=50"`
}
