package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "carpool/internal/auth/errors"
	"carpool/pkg/config"
	mongotx "carpool/pkg/db/mongo"
	"carpool/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sequence   *mongotx.Sequence
}

// NewMongoUserRepository relies on the unique email index created by the
// migrations to reject duplicate registrations.
func NewMongoUserRepository(cfg *config.Config, db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		sequence:   mongotx.NewSequence(db),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := r.sequence.Next(ctx, SequenceName)
	if err != nil {
		return err
	}
	user.ID = id
	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", autherrors.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %v", autherrors.ErrUserNotFound, filter)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
