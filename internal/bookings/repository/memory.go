package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	bookingserrors "carpool/internal/bookings/errors"
	"carpool/pkg/model"
)

type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[int64]*model.Booking
	order    []int64
	nextID   int64
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[int64]*model.Booking),
	}
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	booking.ID = r.nextID
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	stored.Trip = nil
	r.bookings[booking.ID] = &stored
	r.order = append(r.order, booking.ID)
	return nil
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id int64) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", bookingserrors.ErrNotFound, id)
	}
	out := *booking
	return &out, nil
}

func (r *memoryBookingRepository) FindByUser(_ context.Context, userID int64) ([]*model.Booking, error) {
	return r.collect(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (r *memoryBookingRepository) FindByTrip(_ context.Context, tripID int64) ([]*model.Booking, error) {
	return r.collect(func(b *model.Booking) bool { return b.TripID == tripID }), nil
}

func (r *memoryBookingRepository) UpdateStatus(_ context.Context, id int64, from, to model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", bookingserrors.ErrNotFound, id)
	}
	if booking.Status != from {
		return nil, fmt.Errorf("%w: booking %d is %s, expected %s",
			bookingserrors.ErrStatusConflict, id, booking.Status, from)
	}

	booking.Status = to
	booking.UpdatedAt = time.Now().UTC()
	out := *booking
	return &out, nil
}

func (r *memoryBookingRepository) collect(match func(*model.Booking) bool) []*model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []*model.Booking{}
	for _, id := range r.order {
		if b := r.bookings[id]; match(b) {
			out := *b
			results = append(results, &out)
		}
	}
	return results
}
