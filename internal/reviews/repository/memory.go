package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	reviewserrors "carpool/internal/reviews/errors"
	"carpool/pkg/model"
)

type reviewKey struct {
	bookingID  int64
	reviewerID int64
}

type memoryReviewRepository struct {
	mu      sync.RWMutex
	reviews []*model.Review
	seen    map[reviewKey]struct{}
	nextID  int64
}

func NewMemoryReviewRepository() ReviewRepository {
	return &memoryReviewRepository{
		seen: make(map[reviewKey]struct{}),
	}
}

func (r *memoryReviewRepository) Create(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reviewKey{bookingID: review.BookingID, reviewerID: review.ReviewerID}
	if _, ok := r.seen[key]; ok {
		return fmt.Errorf("%w: booking %d reviewer %d",
			reviewserrors.ErrAlreadyReviewed, review.BookingID, review.ReviewerID)
	}

	r.nextID++
	review.ID = r.nextID
	review.CreatedAt = time.Now().UTC()

	stored := *review
	r.reviews = append(r.reviews, &stored)
	r.seen[key] = struct{}{}
	return nil
}

func (r *memoryReviewRepository) FindByReviewee(_ context.Context, userID int64) ([]*model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Review{}
	for _, review := range r.reviews {
		if review.RevieweeID == userID {
			copied := *review
			out = append(out, &copied)
		}
	}
	return out, nil
}
