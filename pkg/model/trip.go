package model

import "time"

type Trip struct {
	ID                int64     `json:"id" bson:"_id"`
	DriverID          int64     `json:"driver_id" bson:"driver_id"`
	DepartureLocation string    `json:"departure_location" bson:"departure_location"`
	ArrivalLocation   string    `json:"arrival_location" bson:"arrival_location"`
	DepartureTime     time.Time `json:"departure_time" bson:"departure_time"`
	SeatsTotal        int       `json:"seats_total" bson:"seats_total"`
	AvailableSeats    int       `json:"available_seats" bson:"available_seats"`
	Price             float64   `json:"price" bson:"price"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// TripInput is the driver-supplied part of a trip. AvailableSeats becomes both
// the capacity and the initial availability.
type TripInput struct {
	DepartureLocation string    `json:"departure_location" validate:"required,min=2,max=100"`
	ArrivalLocation   string    `json:"arrival_location" validate:"required,min=2,max=100"`
	DepartureTime     time.Time `json:"departure_time" validate:"required"`
	AvailableSeats    int       `json:"available_seats" validate:"gt=0,lte=50"`
	Price             float64   `json:"price" validate:"gte=0,lte=100000"`
}

type TripSearch struct {
	Departure string `validate:"required,max=100"`
	Arrival   string `validate:"omitempty,max=100"`
}
