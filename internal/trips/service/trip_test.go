package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"carpool/internal/trips/repository"
	"carpool/internal/trips/validator"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newTestService(t *testing.T) (TripService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewTripService(
		repository.NewMemoryTripRepository(),
		validator.NewTripValidator(),
		pub,
		logger.Discard(),
	)
	return svc, pub
}

func tripInput(from, to string, seats int, price float64) *model.TripInput {
	return &model.TripInput{
		DepartureLocation: from,
		ArrivalLocation:   to,
		DepartureTime:     time.Now().Add(48 * time.Hour),
		AvailableSeats:    seats,
		Price:             price,
	}
}

func TestCreate(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	trip, err := svc.Create(ctx, 7, tripInput("  Madrid  ", "Valencia", 3, 12.5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if trip.ID != 1 {
		t.Errorf("expected first trip id 1, got %d", trip.ID)
	}
	if trip.DepartureLocation != "Madrid" {
		t.Errorf("departure not normalized: %q", trip.DepartureLocation)
	}
	if trip.SeatsTotal != 3 || trip.AvailableSeats != 3 {
		t.Errorf("seats = %d/%d, want 3/3", trip.AvailableSeats, trip.SeatsTotal)
	}
	if trip.DriverID != 7 {
		t.Errorf("driver = %d, want 7", trip.DriverID)
	}
	if len(pub.events) != 1 || pub.events[0].Type != model.EventTripCreated {
		t.Errorf("expected trip.created event, got %+v", pub.events)
	}

	second, err := svc.Create(ctx, 7, tripInput("Madrid", "Sevilla", 1, 0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ID <= trip.ID {
		t.Errorf("ids must be monotonic: %d after %d", second.ID, trip.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, pub := newTestService(t)

	tests := []struct {
		name  string
		input *model.TripInput
	}{
		{"zero seats", tripInput("Madrid", "Valencia", 0, 10)},
		{"negative price", tripInput("Madrid", "Valencia", 2, -1)},
		{"blank departure", tripInput("   ", "Valencia", 2, 10)},
		{"blank arrival", tripInput("Madrid", "", 2, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.input)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}

	past := tripInput("Madrid", "Valencia", 2, 10)
	past.DepartureTime = time.Now().Add(-time.Hour)
	if _, err := svc.Create(context.Background(), 1, past); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for past departure, got %v", err)
	}

	if len(pub.events) != 0 {
		t.Errorf("no events expected for rejected trips, got %d", len(pub.events))
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []*model.TripInput{
		tripInput("Madrid", "Valencia", 3, 10),
		tripInput("Barcelona", "Madrid", 2, 20),
		tripInput("MADRID Centro", "Sevilla", 1, 30),
		tripInput("Toledo", "Valencia", 4, 5),
	} {
		if _, err := svc.Create(ctx, 1, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	trips, err := svc.Search(ctx, "madrid", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips departing from madrid, got %d", len(trips))
	}
	if trips[0].ID > trips[1].ID {
		t.Error("results must be in insertion order")
	}
	for _, trip := range trips {
		if trip.DepartureLocation == "Barcelona" {
			t.Error("arrival match must not count as departure match")
		}
	}

	trips, err = svc.Search(ctx, "Madrid", "sev")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(trips) != 1 || trips[0].ArrivalLocation != "Sevilla" {
		t.Errorf("unexpected results for arrival filter: %+v", trips)
	}

	if _, err := svc.Search(ctx, "  ", ""); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for blank departure, got %v", err)
	}
}

func TestSearch_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 3, tripInput("Granada", "Málaga", 4, 9.99))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := svc.Search(ctx, "granada", "")
	if err != nil || len(found) != 1 {
		t.Fatalf("Search: %v (%d results)", err, len(found))
	}
	got := found[0]
	if got.Price != created.Price || got.AvailableSeats != created.AvailableSeats ||
		got.DepartureLocation != created.DepartureLocation || got.ArrivalLocation != created.ArrivalLocation {
		t.Errorf("search returned %+v, created %+v", got, created)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GetByID(context.Background(), 99); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestListByDriver(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Create(ctx, 1, tripInput("Madrid", "Valencia", 3, 10))
	svc.Create(ctx, 2, tripInput("Bilbao", "Madrid", 3, 10))
	svc.Create(ctx, 1, tripInput("Cuenca", "Madrid", 3, 10))

	trips, err := svc.ListByDriver(ctx, 1)
	if err != nil {
		t.Fatalf("ListByDriver: %v", err)
	}
	if len(trips) != 2 {
		t.Errorf("expected 2 trips for driver 1, got %d", len(trips))
	}

	none, err := svc.ListByDriver(ctx, 42)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil list, got %v %v", none, err)
	}
}

func TestReserveAndRelease(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	trip, _ := svc.Create(ctx, 1, tripInput("Madrid", "Valencia", 3, 10))

	updated, err := svc.ReserveSeats(ctx, trip.ID, 2)
	if err != nil {
		t.Fatalf("ReserveSeats: %v", err)
	}
	if updated.AvailableSeats != 1 {
		t.Errorf("available = %d, want 1", updated.AvailableSeats)
	}

	_, err = svc.ReserveSeats(ctx, trip.ID, 2)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInsufficientSeats {
		t.Fatalf("expected INSUFFICIENT_SEATS, got %v", err)
	}
	if appErr.Details["available"] != 1 {
		t.Errorf("expected available=1 in details, got %v", appErr.Details)
	}

	if _, err := svc.ReserveSeats(ctx, trip.ID, 0); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for zero seats, got %v", err)
	}
	if _, err := svc.ReserveSeats(ctx, 404, 1); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	released, err := svc.ReleaseSeats(ctx, trip.ID, 5)
	if err != nil {
		t.Fatalf("ReleaseSeats: %v", err)
	}
	if released.AvailableSeats != 3 {
		t.Errorf("release must cap at capacity: got %d, want 3", released.AvailableSeats)
	}
}

func TestReserveSeats_Concurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	trip, _ := svc.Create(ctx, 1, tripInput("Madrid", "Valencia", 5, 10))

	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ReserveSeats(ctx, trip.ID, 1); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if won != 5 {
		t.Errorf("expected exactly 5 successful reservations, got %d", won)
	}
	final, _ := svc.GetByID(ctx, trip.ID)
	if final.AvailableSeats != 0 {
		t.Errorf("available = %d, want 0", final.AvailableSeats)
	}
}
