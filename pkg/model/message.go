package model

import "time"

type Message struct {
	ID        int64     `json:"id" bson:"_id"`
	BookingID int64     `json:"booking_id" bson:"booking_id"`
	SenderID  int64     `json:"sender_id" bson:"sender_id"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type MessageInput struct {
	Body string `json:"body" validate:"required,min=1,max=1000"`
}
