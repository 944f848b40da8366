package service

import (
	"context"
	"errors"
	"math"

	bookingservice "carpool/internal/bookings/service"
	reviewserrors "carpool/internal/reviews/errors"
	"carpool/internal/reviews/repository"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
	"carpool/pkg/sanitizer"
	"carpool/pkg/validation"
)

type ParticipantResolver interface {
	Participants(ctx context.Context, bookingID int64) (*bookingservice.Participants, error)
}

type ReviewService interface {
	Create(ctx context.Context, reviewerID, bookingID int64, input *model.ReviewInput) (*model.Review, error)
	ListForUser(ctx context.Context, userID int64) (*model.ReviewSummary, error)
}

type reviewService struct {
	repo     repository.ReviewRepository
	bookings ParticipantResolver
	validate *validation.Validator
	log      *logger.Logger
}

func NewReviewService(repo repository.ReviewRepository, bookings ParticipantResolver, log *logger.Logger) ReviewService {
	return &reviewService{
		repo:     repo,
		bookings: bookings,
		validate: validation.New(),
		log:      log,
	}
}

// Create records a review of the other participant. Only confirmed bookings
// can be reviewed, once per reviewer.
func (s *reviewService) Create(ctx context.Context, reviewerID, bookingID int64, input *model.ReviewInput) (*model.Review, error) {
	p, err := s.bookings.Participants(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !p.Includes(reviewerID) {
		return nil, apperrors.Forbidden("Only the passenger or the driver can review this booking")
	}
	if p.Booking.Status != model.BookingConfirmed {
		return nil, apperrors.New(apperrors.CodeInvalidTransition, "only confirmed bookings can be reviewed").
			WithDetails(map[string]any{"status": string(p.Booking.Status)})
	}

	input.Comment = sanitizer.NormalizeText(input.Comment)
	if err := s.validate.Struct(input); err != nil {
		s.log.WithContext(ctx).Warn("Review validation failed",
			"booking_id", bookingID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		return nil, validation.ToAppError("Review validation failed", err)
	}

	review := &model.Review{
		BookingID:  bookingID,
		ReviewerID: reviewerID,
		RevieweeID: p.Other(reviewerID),
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrAlreadyReviewed) {
			return nil, apperrors.Conflict("You already reviewed this booking")
		}
		s.log.WithContext(ctx).Error("Failed to store review",
			"booking_id", bookingID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.log.WithContext(ctx).Info("Review created",
		"review_id", review.ID,
		"booking_id", bookingID,
		"reviewee_id", review.RevieweeID,
		"rating", review.Rating,
	)
	return review, nil
}

func (s *reviewService) ListForUser(ctx context.Context, userID int64) (*model.ReviewSummary, error) {
	reviews, err := s.repo.FindByReviewee(ctx, userID)
	if err != nil {
		s.log.WithContext(ctx).Error("Failed to list reviews",
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list reviews", err)
	}

	summary := &model.ReviewSummary{
		UserID:  userID,
		Count:   len(reviews),
		Reviews: reviews,
	}
	if len(reviews) > 0 {
		total := 0
		for _, r := range reviews {
			total += r.Rating
		}
		summary.Average = math.Round(float64(total)/float64(len(reviews))*100) / 100
	}
	return summary, nil
}
