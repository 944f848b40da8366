package repository

import (
	"context"

	"carpool/pkg/model"
)

const (
	CollectionName = "Bookings"
	SequenceName   = "bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id int64) (*model.Booking, error)
	FindByUser(ctx context.Context, userID int64) ([]*model.Booking, error)
	FindByTrip(ctx context.Context, tripID int64) ([]*model.Booking, error)

	// UpdateStatus moves the booking from one status to another only if it is
	// still in from. Otherwise it returns ErrStatusConflict.
	UpdateStatus(ctx context.Context, id int64, from, to model.BookingStatus) (*model.Booking, error)
}
