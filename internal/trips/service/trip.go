package service

import (
	"context"
	"errors"

	"carpool/internal/events"
	tripserrors "carpool/internal/trips/errors"
	"carpool/internal/trips/repository"
	"carpool/internal/trips/validator"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
	"carpool/pkg/sanitizer"
	"carpool/pkg/validation"
)

type TripService interface {
	Create(ctx context.Context, driverID int64, input *model.TripInput) (*model.Trip, error)
	GetByID(ctx context.Context, id int64) (*model.Trip, error)
	Search(ctx context.Context, departure, arrival string) ([]*model.Trip, error)
	ListByDriver(ctx context.Context, driverID int64) ([]*model.Trip, error)

	ReserveSeats(ctx context.Context, id int64, seats int) (*model.Trip, error)
	ReleaseSeats(ctx context.Context, id int64, seats int) (*model.Trip, error)
}

type tripService struct {
	repo      repository.TripRepository
	validator *validator.TripValidator
	publisher events.Publisher
	log       *logger.Logger
}

func NewTripService(
	repo repository.TripRepository,
	validator *validator.TripValidator,
	publisher events.Publisher,
	log *logger.Logger,
) TripService {
	return &tripService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		log:       log,
	}
}

func (s *tripService) Create(ctx context.Context, driverID int64, input *model.TripInput) (*model.Trip, error) {
	if driverID <= 0 {
		return nil, apperrors.Unauthenticated("Authentication required")
	}

	input.DepartureLocation = sanitizer.NormalizeLocation(input.DepartureLocation)
	input.ArrivalLocation = sanitizer.NormalizeLocation(input.ArrivalLocation)

	if err := s.validator.Validate(input); err != nil {
		s.log.WithContext(ctx).Warn("Trip validation failed",
			"driver_id", driverID,
			"error", err,
		)
		return nil, validation.ToAppError("Trip validation failed", err)
	}

	trip := &model.Trip{
		DriverID:          driverID,
		DepartureLocation: input.DepartureLocation,
		ArrivalLocation:   input.ArrivalLocation,
		DepartureTime:     input.DepartureTime.UTC(),
		SeatsTotal:        input.AvailableSeats,
		AvailableSeats:    input.AvailableSeats,
		Price:             input.Price,
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		s.log.WithContext(ctx).Error("Failed to create trip",
			"driver_id", driverID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create trip", err)
	}

	s.log.WithContext(ctx).Info("Trip created successfully",
		"trip_id", trip.ID,
		"driver_id", driverID,
		"departure", trip.DepartureLocation,
		"arrival", trip.ArrivalLocation,
		"seats", trip.SeatsTotal,
	)

	event := events.New(model.EventTripCreated, driverID)
	event.TripID = trip.ID
	event.Seats = trip.SeatsTotal
	event.Summary = trip.DepartureLocation + " to " + trip.ArrivalLocation
	events.Emit(ctx, s.publisher, s.log, event)

	return trip, nil
}

func (s *tripService) GetByID(ctx context.Context, id int64) (*model.Trip, error) {
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err, "Failed to retrieve trip", id)
	}
	return trip, nil
}

func (s *tripService) Search(ctx context.Context, departure, arrival string) ([]*model.Trip, error) {
	search := &model.TripSearch{
		Departure: sanitizer.NormalizeLocation(departure),
		Arrival:   sanitizer.NormalizeLocation(arrival),
	}
	if err := s.validator.ValidateSearch(search); err != nil {
		return nil, validation.ToAppError("Invalid trip search", err)
	}

	trips, err := s.repo.Search(ctx, search.Departure, search.Arrival)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to search trips",
			"departure", search.Departure,
			"arrival", search.Arrival,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search trips", err)
	}

	s.log.WithContext(ctx).Debug("Trip search completed",
		"departure", search.Departure,
		"arrival", search.Arrival,
		"results_count", len(trips),
	)
	return trips, nil
}

func (s *tripService) ListByDriver(ctx context.Context, driverID int64) ([]*model.Trip, error) {
	trips, err := s.repo.FindByDriver(ctx, driverID)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list driver trips",
			"driver_id", driverID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve trips", err)
	}
	return trips, nil
}

func (s *tripService) ReserveSeats(ctx context.Context, id int64, seats int) (*model.Trip, error) {
	trip, err := s.repo.ReserveSeats(ctx, id, seats)
	if err != nil {
		if errors.Is(err, tripserrors.ErrInsufficientSeats) {
			available := 0
			if trip != nil {
				available = trip.AvailableSeats
			}
			return nil, apperrors.InsufficientSeats(seats, available)
		}
		return nil, s.translate(ctx, err, "Failed to reserve seats", id)
	}
	return trip, nil
}

func (s *tripService) ReleaseSeats(ctx context.Context, id int64, seats int) (*model.Trip, error) {
	trip, err := s.repo.ReleaseSeats(ctx, id, seats)
	if err != nil {
		return nil, s.translate(ctx, err, "Failed to release seats", id)
	}
	return trip, nil
}

func (s *tripService) translate(ctx context.Context, err error, message string, id int64) error {
	switch {
	case errors.Is(err, tripserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Trip", id)
	case errors.Is(err, tripserrors.ErrInvalidSeats):
		return apperrors.Validation("Invalid seat count", map[string]any{
			"seats": "seats must be greater than 0",
		})
	}
	s.log.WithContext(ctx).Error(message, "trip_id", id, "error", err)
	return apperrors.Internal(message, err)
}
