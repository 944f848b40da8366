package repository

import (
	"context"

	"carpool/pkg/model"
)

const (
	CollectionName = "Trips"
	SequenceName   = "trips"
)

// TripRepository stores trips. ReserveSeats and ReleaseSeats are atomic with
// respect to each other and to concurrent callers on the same trip.
//
// On ErrInsufficientSeats, ReserveSeats also returns the trip as it was seen
// so callers can report the remaining capacity.
type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) error
	FindByID(ctx context.Context, id int64) (*model.Trip, error)
	Search(ctx context.Context, departure, arrival string) ([]*model.Trip, error)
	FindByDriver(ctx context.Context, driverID int64) ([]*model.Trip, error)

	ReserveSeats(ctx context.Context, id int64, seats int) (*model.Trip, error)
	ReleaseSeats(ctx context.Context, id int64, seats int) (*model.Trip, error)
}
