package model

import "time"

type Notification struct {
	ID        int64     `json:"id" bson:"_id"`
	UserID    int64     `json:"user_id" bson:"user_id"`
	Type      EventType `json:"type" bson:"type"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	TripID    int64     `json:"trip_id,omitempty" bson:"trip_id,omitempty"`
	BookingID int64     `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	EventID   string    `json:"-" bson:"event_id"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NotificationQuery filters a user's inbox. A zero Limit returns everything.
type NotificationQuery struct {
	UnreadOnly bool
	Limit      int
	Offset     int64
}
