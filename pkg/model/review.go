package model

import "time"

type Review struct {
	ID         int64     `json:"id" bson:"_id"`
	BookingID  int64     `json:"booking_id" bson:"booking_id"`
	ReviewerID int64     `json:"reviewer_id" bson:"reviewer_id"`
	RevieweeID int64     `json:"reviewee_id" bson:"reviewee_id"`
	Rating     int       `json:"rating" bson:"rating"`
	Comment    string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=500"`
}

type ReviewSummary struct {
	UserID  int64     `json:"user_id"`
	Count   int       `json:"count"`
	Average float64   `json:"average"`
	Reviews []*Review `json:"reviews"`
}
