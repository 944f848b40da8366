package service

import (
	"context"
	"testing"

	bookingservice "carpool/internal/bookings/service"
	"carpool/internal/reviews/repository"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	driver    int64 = 1
	passenger int64 = 2
	stranger  int64 = 3
)

type fakeBookings map[int64]model.BookingStatus

func (f fakeBookings) Participants(_ context.Context, bookingID int64) (*bookingservice.Participants, error) {
	status, ok := f[bookingID]
	if !ok {
		return nil, apperrors.NotFoundWithID("Booking", bookingID)
	}
	return &bookingservice.Participants{
		Booking:     &model.Booking{ID: bookingID, UserID: passenger, Status: status},
		PassengerID: passenger,
		DriverID:    driver,
	}, nil
}

func newService() ReviewService {
	return NewReviewService(
		repository.NewMemoryReviewRepository(),
		fakeBookings{10: model.BookingConfirmed, 11: model.BookingConfirmed, 12: model.BookingPending},
		logger.Discard(),
	)
}

func TestCreate_ReviewsOtherParticipant(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	review, err := svc.Create(ctx, passenger, 10, &model.ReviewInput{Rating: 5, Comment: " Smooth ride "})
	require.NoError(t, err)
	assert.Equal(t, driver, review.RevieweeID)
	assert.Equal(t, "Smooth ride", review.Comment)

	back, err := svc.Create(ctx, driver, 10, &model.ReviewInput{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, passenger, back.RevieweeID)
}

func TestCreate_OncePerReviewer(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, passenger, 10, &model.ReviewInput{Rating: 5})
	require.NoError(t, err)

	_, err = svc.Create(ctx, passenger, 10, &model.ReviewInput{Rating: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)

	_, err = svc.Create(ctx, passenger, 11, &model.ReviewInput{Rating: 3})
	assert.NoError(t, err, "a different booking can be reviewed")
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		reviewer  int64
		bookingID int64
		rating    int
		wantCode  apperrors.Code
	}{
		{"pending booking", passenger, 12, 5, apperrors.CodeInvalidTransition},
		{"stranger", stranger, 10, 5, apperrors.CodeForbidden},
		{"rating too low", passenger, 10, 0, apperrors.CodeValidation},
		{"rating too high", passenger, 10, 6, apperrors.CodeValidation},
		{"unknown booking", passenger, 99, 5, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService().Create(context.Background(), tt.reviewer, tt.bookingID, &model.ReviewInput{Rating: tt.rating})
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v, want %s", err, tt.wantCode)
		})
	}
}

func TestListForUser_Average(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	empty, err := svc.ListForUser(ctx, driver)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.Reviews)

	_, err = svc.Create(ctx, passenger, 10, &model.ReviewInput{Rating: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, passenger, 11, &model.ReviewInput{Rating: 4})
	require.NoError(t, err)

	summary, err := svc.ListForUser(ctx, driver)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 4.5, summary.Average, 0.001)

	other, err := svc.ListForUser(ctx, passenger)
	require.NoError(t, err)
	assert.Zero(t, other.Count)
}
