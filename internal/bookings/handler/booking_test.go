package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carpool/internal/auth"
	"carpool/internal/bookings/repository"
	"carpool/internal/bookings/service"
	"carpool/internal/events"
	triprepo "carpool/internal/trips/repository"
	tripservice "carpool/internal/trips/service"
	tripvalidator "carpool/internal/trips/validator"
	mongotx "carpool/pkg/db/mongo"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	driverID    int64 = 1
	passengerID int64 = 2
	strangerID  int64 = 3
)

type fixture struct {
	router *httprouter.Router
	trips  tripservice.TripService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	pub := events.NewNopPublisher()
	trips := tripservice.NewTripService(triprepo.NewMemoryTripRepository(), tripvalidator.NewTripValidator(), pub, log)
	ledger := service.NewBookingService(
		repository.NewMemoryBookingRepository(),
		trips,
		repository.NewLocalTripLocker(),
		mongotx.NewDirectTransactionManager(),
		pub,
		nil,
		log,
	)

	router := httprouter.New()
	NewBookingHandler(ledger, log).RegisterRoutes(router)
	return &fixture{router: router, trips: trips}
}

func (f *fixture) trip(t *testing.T, seats int) *model.Trip {
	t.Helper()
	trip, err := f.trips.Create(context.Background(), driverID, &model.TripInput{
		DepartureLocation: "Madrid",
		ArrivalLocation:   "Toledo",
		DepartureTime:     time.Now().Add(time.Hour),
		AvailableSeats:    seats,
		Price:             5,
	})
	if err != nil {
		t.Fatal(err)
	}
	return trip
}

func (f *fixture) do(method, path, body string, caller int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != 0 {
		req = req.WithContext(auth.WithCaller(req.Context(), &auth.Caller{ID: caller}))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBooking(t *testing.T, w *httptest.ResponseRecorder) model.Booking {
	t.Helper()
	var b model.Booking
	if err := json.NewDecoder(w.Body).Decode(&b); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	return b
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.Code {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return body.Code
}

func TestBookingLifecycle(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 2)

	w := f.do(http.MethodPost, fmt.Sprintf("/trips/%d/bookings", trip.ID), `{"booking":{"seats":2}}`, passengerID)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	booking := decodeBooking(t, w)
	if booking.Status != model.BookingPending || booking.Seats != 2 {
		t.Fatalf("unexpected booking %+v", booking)
	}

	confirmPath := fmt.Sprintf("/trips/%d/bookings/%d/confirm", trip.ID, booking.ID)

	w = f.do(http.MethodPut, confirmPath, "", passengerID)
	if w.Code != http.StatusForbidden {
		t.Errorf("confirm by passenger: expected 403, got %d", w.Code)
	}

	w = f.do(http.MethodPut, confirmPath, "", driverID)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decodeBooking(t, w); got.Status != model.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", got.Status)
	}

	w = f.do(http.MethodPut, confirmPath, "", driverID)
	if w.Code != http.StatusConflict || errorCode(t, w) != apperrors.CodeInvalidTransition {
		t.Errorf("second confirm: expected 409 INVALID_TRANSITION, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/bookings", "", passengerID)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var mine []model.Booking
	json.NewDecoder(w.Body).Decode(&mine)
	if len(mine) != 1 || mine[0].Trip == nil || mine[0].Trip.AvailableSeats != 0 {
		t.Errorf("expected one hydrated booking with trip at 0 seats, got %+v", mine)
	}

	w = f.do(http.MethodDelete, fmt.Sprintf("/bookings/%d", booking.ID), "", strangerID)
	if w.Code != http.StatusForbidden {
		t.Errorf("cancel by stranger: expected 403, got %d", w.Code)
	}

	w = f.do(http.MethodDelete, fmt.Sprintf("/bookings/%d", booking.ID), "", passengerID)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", w.Code)
	}

	updated, _ := f.trips.GetByID(context.Background(), trip.ID)
	if updated.AvailableSeats != 2 {
		t.Errorf("available = %d after cancel, want 2", updated.AvailableSeats)
	}
}

func TestInsufficientSeats(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 1)

	w := f.do(http.MethodPost, fmt.Sprintf("/trips/%d/bookings", trip.ID), `{"booking":{"seats":2}}`, passengerID)
	booking := decodeBooking(t, w)

	w = f.do(http.MethodPut, fmt.Sprintf("/trips/%d/bookings/%d/confirm", trip.ID, booking.ID), "", driverID)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if code := errorCode(t, w); code != apperrors.CodeInsufficientSeats {
		t.Errorf("code = %s, want %s", code, apperrors.CodeInsufficientSeats)
	}
}

func TestBookingErrors(t *testing.T) {
	f := newFixture(t)
	trip := f.trip(t, 3)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		caller   int64
		wantCode int
	}{
		{"no credential", http.MethodPost, fmt.Sprintf("/trips/%d/bookings", trip.ID), `{"booking":{"seats":1}}`, 0, http.StatusUnauthorized},
		{"trip absent", http.MethodPost, "/trips/999/bookings", `{"booking":{"seats":1}}`, passengerID, http.StatusNotFound},
		{"zero seats", http.MethodPost, fmt.Sprintf("/trips/%d/bookings", trip.ID), `{"booking":{"seats":0}}`, passengerID, http.StatusUnprocessableEntity},
		{"missing booking", http.MethodPost, fmt.Sprintf("/trips/%d/bookings", trip.ID), `{}`, passengerID, http.StatusUnprocessableEntity},
		{"malformed", http.MethodPost, fmt.Sprintf("/trips/%d/bookings", trip.ID), `{"booking":`, passengerID, http.StatusBadRequest},
		{"bad trip id", http.MethodPost, "/trips/abc/bookings", `{"booking":{"seats":1}}`, passengerID, http.StatusBadRequest},
		{"list trip bookings as passenger", http.MethodGet, fmt.Sprintf("/trips/id/%d/bookings", trip.ID), "", passengerID, http.StatusForbidden},
		{"list trip bookings as driver", http.MethodGet, fmt.Sprintf("/trips/id/%d/bookings", trip.ID), "", driverID, http.StatusOK},
		{"cancel unknown", http.MethodDelete, "/bookings/999", "", passengerID, http.StatusNotFound},
		{"reject unknown", http.MethodPut, fmt.Sprintf("/trips/%d/bookings/999/reject", trip.ID), "", driverID, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.body, tt.caller)
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}
