package repository

import (
	"context"
	"fmt"
	"time"

	reviewserrors "carpool/internal/reviews/errors"
	"carpool/pkg/config"
	mongotx "carpool/pkg/db/mongo"
	"carpool/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReviewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sequence   *mongotx.Sequence
}

// NewMongoReviewRepository relies on the unique (booking_id, reviewer_id)
// index created by the migrations.
func NewMongoReviewRepository(cfg *config.Config, db *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		sequence:   mongotx.NewSequence(db),
	}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := r.sequence.Next(ctx, SequenceName)
	if err != nil {
		return err
	}
	review.ID = id
	review.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, review); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: booking %d reviewer %d",
				reviewserrors.ErrAlreadyReviewed, review.BookingID, review.ReviewerID)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *mongoReviewRepository) FindByReviewee(ctx context.Context, userID int64) ([]*model.Review, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"reviewee_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []*model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}
