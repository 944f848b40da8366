package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carpool/internal/auth"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockReviewService struct {
	createFunc func(ctx context.Context, reviewerID, bookingID int64, input *model.ReviewInput) (*model.Review, error)
}

func (m *mockReviewService) Create(ctx context.Context, reviewerID, bookingID int64, input *model.ReviewInput) (*model.Review, error) {
	return m.createFunc(ctx, reviewerID, bookingID, input)
}

func (m *mockReviewService) ListForUser(_ context.Context, userID int64) (*model.ReviewSummary, error) {
	return &model.ReviewSummary{UserID: userID, Count: 1, Average: 4, Reviews: []*model.Review{{Rating: 4}}}, nil
}

func newRouter(svc *mockReviewService) *httprouter.Router {
	router := httprouter.New()
	NewReviewHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestCreate(t *testing.T) {
	svc := &mockReviewService{
		createFunc: func(_ context.Context, reviewerID, bookingID int64, input *model.ReviewInput) (*model.Review, error) {
			if bookingID == 8 {
				return nil, apperrors.Conflict("You already reviewed this booking")
			}
			return &model.Review{ID: 1, BookingID: bookingID, ReviewerID: reviewerID, Rating: input.Rating}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name     string
		path     string
		body     string
		caller   int64
		wantCode int
	}{
		{"created", "/bookings/7/reviews", `{"rating":5}`, 2, http.StatusCreated},
		{"duplicate", "/bookings/8/reviews", `{"rating":5}`, 2, http.StatusConflict},
		{"anonymous", "/bookings/7/reviews", `{"rating":5}`, 0, http.StatusUnauthorized},
		{"bad id", "/bookings/abc/reviews", `{"rating":5}`, 2, http.StatusBadRequest},
		{"unknown field", "/bookings/7/reviews", `{"stars":5}`, 2, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			if tt.caller != 0 {
				req = req.WithContext(auth.WithCaller(req.Context(), &auth.Caller{ID: tt.caller}))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestListForUser(t *testing.T) {
	router := newRouter(&mockReviewService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/4/reviews", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var summary model.ReviewSummary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.UserID != 4 || summary.Count != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
}
