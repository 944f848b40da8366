package repository

import (
	"context"

	"carpool/pkg/model"
)

const (
	CollectionName = "Reviews"
	SequenceName   = "reviews"
)

type ReviewRepository interface {
	// Create fails with ErrAlreadyReviewed when (booking, reviewer) exists.
	Create(ctx context.Context, review *model.Review) error
	FindByReviewee(ctx context.Context, userID int64) ([]*model.Review, error)
}
