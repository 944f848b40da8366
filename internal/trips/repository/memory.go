package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tripserrors "carpool/internal/trips/errors"
	"carpool/pkg/model"
)

type memoryTripRepository struct {
	mu     sync.RWMutex
	trips  map[int64]*model.Trip
	order  []int64
	nextID int64
}

func NewMemoryTripRepository() TripRepository {
	return &memoryTripRepository{
		trips: make(map[int64]*model.Trip),
	}
}

func (r *memoryTripRepository) Create(_ context.Context, trip *model.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	trip.ID = r.nextID
	trip.CreatedAt = now
	trip.UpdatedAt = now

	stored := *trip
	r.trips[trip.ID] = &stored
	r.order = append(r.order, trip.ID)
	return nil
}

func (r *memoryTripRepository) FindByID(_ context.Context, id int64) (*model.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trip, ok := r.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", tripserrors.ErrNotFound, id)
	}
	out := *trip
	return &out, nil
}

func (r *memoryTripRepository) Search(_ context.Context, departure, arrival string) ([]*model.Trip, error) {
	departure = strings.ToLower(departure)
	arrival = strings.ToLower(arrival)

	return r.collect(func(t *model.Trip) bool {
		if !strings.Contains(strings.ToLower(t.DepartureLocation), departure) {
			return false
		}
		return arrival == "" || strings.Contains(strings.ToLower(t.ArrivalLocation), arrival)
	}), nil
}

func (r *memoryTripRepository) FindByDriver(_ context.Context, driverID int64) ([]*model.Trip, error) {
	return r.collect(func(t *model.Trip) bool {
		return t.DriverID == driverID
	}), nil
}

func (r *memoryTripRepository) ReserveSeats(_ context.Context, id int64, seats int) (*model.Trip, error) {
	if seats <= 0 {
		return nil, tripserrors.ErrInvalidSeats
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", tripserrors.ErrNotFound, id)
	}
	if trip.AvailableSeats < seats {
		out := *trip
		return &out, fmt.Errorf("%w: trip %d has %d, requested %d",
			tripserrors.ErrInsufficientSeats, id, trip.AvailableSeats, seats)
	}

	trip.AvailableSeats -= seats
	trip.UpdatedAt = time.Now().UTC()
	out := *trip
	return &out, nil
}

func (r *memoryTripRepository) ReleaseSeats(_ context.Context, id int64, seats int) (*model.Trip, error) {
	if seats <= 0 {
		return nil, tripserrors.ErrInvalidSeats
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", tripserrors.ErrNotFound, id)
	}

	trip.AvailableSeats = min(trip.AvailableSeats+seats, trip.SeatsTotal)
	trip.UpdatedAt = time.Now().UTC()
	out := *trip
	return &out, nil
}

func (r *memoryTripRepository) collect(match func(*model.Trip) bool) []*model.Trip {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []*model.Trip{}
	for _, id := range r.order {
		trip := r.trips[id]
		if match(trip) {
			out := *trip
			results = append(results, &out)
		}
	}
	return results
}
