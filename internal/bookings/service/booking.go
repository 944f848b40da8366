package service

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "carpool/internal/bookings/errors"
	"carpool/internal/bookings/repository"
	"carpool/internal/events"
	tripservice "carpool/internal/trips/service"
	mongotx "carpool/pkg/db/mongo"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
	"carpool/pkg/validation"
)

// BookingService is the booking ledger. It keeps booking statuses and trip
// seat inventory consistent: seats are taken when a driver confirms and given
// back when a confirmed booking is cancelled.
type BookingService interface {
	Create(ctx context.Context, passengerID, tripID int64, input *model.BookingInput) (*model.Booking, error)
	Get(ctx context.Context, bookingID, callerID int64) (*model.Booking, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.Booking, error)
	ListForTrip(ctx context.Context, tripID, callerID int64) ([]*model.Booking, error)

	Confirm(ctx context.Context, tripID, bookingID, callerID int64) (*model.Booking, error)
	Reject(ctx context.Context, tripID, bookingID, callerID int64) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, callerID int64) (*model.Booking, error)

	Participants(ctx context.Context, bookingID int64) (*Participants, error)
}

// Participants are the two users attached to a booking.
type Participants struct {
	Booking     *model.Booking
	PassengerID int64
	DriverID    int64
}

func (p *Participants) Includes(userID int64) bool {
	return userID == p.PassengerID || userID == p.DriverID
}

// Other returns the participant that is not userID.
func (p *Participants) Other(userID int64) int64 {
	if userID == p.DriverID {
		return p.PassengerID
	}
	return p.DriverID
}

type bookingService struct {
	repo      repository.BookingRepository
	trips     tripservice.TripService
	locker    repository.TripLocker
	txManager mongotx.TransactionManager
	validate  *validation.Validator
	publisher events.Publisher
	metrics   *Metrics
	log       *logger.Logger
}

func NewBookingService(
	repo repository.BookingRepository,
	trips tripservice.TripService,
	locker repository.TripLocker,
	txManager mongotx.TransactionManager,
	publisher events.Publisher,
	metrics *Metrics,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		trips:     trips,
		locker:    locker,
		txManager: txManager,
		validate:  validation.New(),
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

func (s *bookingService) Create(ctx context.Context, passengerID, tripID int64, input *model.BookingInput) (*model.Booking, error) {
	if err := s.validate.Struct(input); err != nil {
		s.log.WithContext(ctx).Warn("Booking validation failed",
			"trip_id", tripID,
			"user_id", passengerID,
			"error", err,
		)
		s.metrics.failure("validation")
		return nil, validation.ToAppError("Booking validation failed", err)
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID == passengerID {
		s.metrics.failure("forbidden")
		return nil, apperrors.Forbidden("Drivers cannot book their own trip")
	}

	booking := &model.Booking{
		TripID: tripID,
		UserID: passengerID,
		Seats:  input.Seats,
		Status: model.BookingPending,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.log.WithContext(ctx).Error("Failed to create booking",
			"trip_id", tripID,
			"user_id", passengerID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.metrics.transition(string(model.BookingPending))
	s.log.WithContext(ctx).Info("Booking created successfully",
		"booking_id", booking.ID,
		"trip_id", tripID,
		"user_id", passengerID,
		"seats", booking.Seats,
	)
	s.emit(ctx, model.EventBookingCreated, passengerID, trip.DriverID, booking)

	booking.Trip = trip
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, bookingID, callerID int64) (*model.Booking, error) {
	p, err := s.Participants(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !p.Includes(callerID) {
		return nil, apperrors.Forbidden("Only the passenger or the driver can view this booking")
	}
	return p.Booking, nil
}

func (s *bookingService) ListForUser(ctx context.Context, userID int64) ([]*model.Booking, error) {
	bookings, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list bookings", "user_id", userID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	trips := make(map[int64]*model.Trip)
	for _, booking := range bookings {
		trip, ok := trips[booking.TripID]
		if !ok {
			trip, err = s.trips.GetByID(ctx, booking.TripID)
			if err != nil {
				if !apperrors.HasCode(err, apperrors.CodeNotFound) {
					return nil, err
				}
				s.log.WithContext(ctx).Warn("Booking references a missing trip",
					"booking_id", booking.ID,
					"trip_id", booking.TripID,
				)
			}
			trips[booking.TripID] = trip
		}
		booking.Trip = trip
	}
	return bookings, nil
}

func (s *bookingService) ListForTrip(ctx context.Context, tripID, callerID int64) ([]*model.Booking, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != callerID {
		return nil, apperrors.Forbidden("Only the driver can list a trip's bookings")
	}

	bookings, err := s.repo.FindByTrip(ctx, tripID)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list trip bookings", "trip_id", tripID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) Confirm(ctx context.Context, tripID, bookingID, callerID int64) (*model.Booking, error) {
	return s.decide(ctx, tripID, bookingID, callerID, model.BookingConfirmed)
}

func (s *bookingService) Reject(ctx context.Context, tripID, bookingID, callerID int64) (*model.Booking, error) {
	return s.decide(ctx, tripID, bookingID, callerID, model.BookingRejected)
}

// decide applies a driver decision to a pending booking. Confirmation
// reserves the seats first; if the status update then loses a race the seats
// are handed back before returning.
func (s *bookingService) decide(ctx context.Context, tripID, bookingID, callerID int64, to model.BookingStatus) (*model.Booking, error) {
	unlock, err := s.lockTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != callerID {
		s.metrics.failure("forbidden")
		return nil, apperrors.Forbidden(fmt.Sprintf("Only the driver can %s bookings", verb(to)))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TripID != tripID {
		return nil, apperrors.NotFoundWithID("Booking", bookingID)
	}
	if booking.Status != model.BookingPending {
		s.metrics.failure("invalid_transition")
		return nil, apperrors.InvalidTransition(string(booking.Status), string(to))
	}

	var updated *model.Booking
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if to == model.BookingConfirmed {
			if _, err := s.trips.ReserveSeats(ctx, tripID, booking.Seats); err != nil {
				return err
			}
		}

		var err error
		updated, err = s.repo.UpdateStatus(ctx, bookingID, model.BookingPending, to)
		if err == nil {
			return nil
		}
		if to == model.BookingConfirmed {
			s.compensate(ctx, tripID, bookingID, booking.Seats)
		}
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			return apperrors.InvalidTransition(string(model.BookingPending), string(to))
		}
		return s.translate(ctx, err, "Failed to update booking", bookingID)
	})
	if err != nil {
		s.recordFailure(err)
		if !apperrors.IsAppError(err) {
			s.log.WithContext(ctx).Error("Booking transition failed",
				"booking_id", bookingID,
				"trip_id", tripID,
				"to", to,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to update booking", err)
		}
		return nil, err
	}

	s.metrics.transition(string(to))
	s.log.WithContext(ctx).Info("Booking status changed",
		"booking_id", bookingID,
		"trip_id", tripID,
		"from", model.BookingPending,
		"to", to,
		"seats", booking.Seats,
	)

	eventType := model.EventBookingConfirmed
	if to == model.BookingRejected {
		eventType = model.EventBookingRejected
	}
	s.emit(ctx, eventType, callerID, updated.UserID, updated)

	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, callerID int64) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != callerID {
		s.metrics.failure("forbidden")
		return nil, apperrors.Forbidden("Only the passenger can cancel this booking")
	}

	unlock, err := s.lockTrip(ctx, booking.TripID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the trip lock; the driver may have decided meanwhile.
	booking, err = s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	prior := booking.Status
	if !prior.CanTransitionTo(model.BookingCancelled) {
		s.metrics.failure("invalid_transition")
		return nil, apperrors.InvalidTransition(string(prior), string(model.BookingCancelled))
	}

	// Seats go back first: a failed release leaves the booking confirmed
	// instead of cancelled with its seats still taken.
	var updated *model.Booking
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		released := false
		if prior == model.BookingConfirmed {
			if _, err := s.trips.ReleaseSeats(ctx, booking.TripID, booking.Seats); err != nil {
				return err
			}
			released = true
		}

		var err error
		updated, err = s.repo.UpdateStatus(ctx, bookingID, prior, model.BookingCancelled)
		if err != nil {
			if released {
				s.retakeSeats(ctx, booking.TripID, bookingID, booking.Seats)
			}
			if errors.Is(err, bookingserrors.ErrStatusConflict) {
				return apperrors.InvalidTransition(string(prior), string(model.BookingCancelled))
			}
			return s.translate(ctx, err, "Failed to cancel booking", bookingID)
		}
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.metrics.transition(string(model.BookingCancelled))
	s.log.WithContext(ctx).Info("Booking cancelled",
		"booking_id", bookingID,
		"trip_id", booking.TripID,
		"from", prior,
		"seats_released", prior == model.BookingConfirmed,
	)

	driverID := int64(0)
	if trip, err := s.trips.GetByID(ctx, booking.TripID); err == nil {
		driverID = trip.DriverID
		updated.Trip = trip
	}
	s.emit(ctx, model.EventBookingCancelled, callerID, driverID, updated)

	return updated, nil
}

func (s *bookingService) Participants(ctx context.Context, bookingID int64) (*Participants, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	trip, err := s.trips.GetByID(ctx, booking.TripID)
	if err != nil {
		return nil, err
	}
	booking.Trip = trip

	return &Participants{
		Booking:     booking,
		PassengerID: booking.UserID,
		DriverID:    trip.DriverID,
	}, nil
}

func (s *bookingService) findBooking(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, err, "Failed to retrieve booking", id)
	}
	return booking, nil
}

func (s *bookingService) lockTrip(ctx context.Context, tripID int64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, tripID)
	if err != nil {
		s.metrics.failure("lock_timeout")
		if errors.Is(err, bookingserrors.ErrTripLockTimeout) {
			return nil, apperrors.Timeout("Timed out waiting for other changes to this trip")
		}
		s.log.WithContext(ctx).Error("Failed to lock trip", "trip_id", tripID, "error", err)
		return nil, apperrors.Internal("Failed to lock trip", err)
	}
	return unlock, nil
}

// compensate gives back seats reserved for a confirmation that did not stick.
func (s *bookingService) compensate(ctx context.Context, tripID, bookingID int64, seats int) {
	if _, err := s.trips.ReleaseSeats(ctx, tripID, seats); err != nil {
		s.log.WithContext(ctx).Error("Failed to release seats after lost confirmation",
			"trip_id", tripID,
			"booking_id", bookingID,
			"seats", seats,
			"error", err,
		)
	}
}

// retakeSeats undoes a release whose cancellation did not stick. The trip
// lock is still held, so the seats are still free.
func (s *bookingService) retakeSeats(ctx context.Context, tripID, bookingID int64, seats int) {
	if _, err := s.trips.ReserveSeats(ctx, tripID, seats); err != nil {
		s.log.WithContext(ctx).Error("Failed to retake seats after failed cancellation",
			"trip_id", tripID,
			"booking_id", bookingID,
			"seats", seats,
			"error", err,
		)
	}
}

func (s *bookingService) translate(ctx context.Context, err error, message string, id int64) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	s.log.WithContext(ctx).Error(message, "booking_id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *bookingService) recordFailure(err error) {
	switch {
	case apperrors.HasCode(err, apperrors.CodeInsufficientSeats):
		s.metrics.failure("insufficient_seats")
	case apperrors.HasCode(err, apperrors.CodeInvalidTransition):
		s.metrics.failure("invalid_transition")
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		s.metrics.failure("not_found")
	default:
		s.metrics.failure("internal")
	}
}

func (s *bookingService) emit(ctx context.Context, eventType model.EventType, actorID, recipientID int64, booking *model.Booking) {
	event := events.New(eventType, actorID)
	event.RecipientID = recipientID
	event.TripID = booking.TripID
	event.BookingID = booking.ID
	event.Seats = booking.Seats
	events.Emit(ctx, s.publisher, s.log, event)
}

func verb(to model.BookingStatus) string {
	if to == model.BookingRejected {
		return "reject"
	}
	return "confirm"
}
