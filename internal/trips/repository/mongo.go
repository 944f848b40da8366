package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	tripserrors "carpool/internal/trips/errors"
	"carpool/pkg/config"
	mongotx "carpool/pkg/db/mongo"
	"carpool/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoTripRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	sequence   *mongotx.Sequence
}

func NewMongoTripRepository(cfg *config.Config, db *mongo.Database) TripRepository {
	return &mongoTripRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		sequence:   mongotx.NewSequence(db),
	}
}

func (r *mongoTripRepository) Create(ctx context.Context, trip *model.Trip) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := r.sequence.Next(ctx, SequenceName)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	trip.ID = id
	trip.CreatedAt = now
	trip.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, trip); err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *mongoTripRepository) FindByID(ctx context.Context, id int64) (*model.Trip, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var trip model.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", tripserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}
	return &trip, nil
}

func (r *mongoTripRepository) Search(ctx context.Context, departure, arrival string) ([]*model.Trip, error) {
	filter := bson.M{"departure_location": containsFold(departure)}
	if arrival != "" {
		filter["arrival_location"] = containsFold(arrival)
	}
	return r.find(ctx, filter)
}

func (r *mongoTripRepository) FindByDriver(ctx context.Context, driverID int64) ([]*model.Trip, error) {
	return r.find(ctx, bson.M{"driver_id": driverID})
}

// ReserveSeats decrements only when enough seats remain, in a single
// FindOneAndUpdate, so concurrent reservations cannot oversell.
func (r *mongoTripRepository) ReserveSeats(ctx context.Context, id int64, seats int) (*model.Trip, error) {
	if seats <= 0 {
		return nil, tripserrors.ErrInvalidSeats
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":             id,
		"available_seats": bson.M{"$gte": seats},
	}
	update := bson.M{
		"$inc": bson.M{"available_seats": -seats},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var trip model.Trip
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&trip)
	if err == nil {
		return &trip, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to reserve seats: %w", err)
	}

	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return current, fmt.Errorf("%w: trip %d has %d, requested %d",
		tripserrors.ErrInsufficientSeats, id, current.AvailableSeats, seats)
}

// ReleaseSeats adds seats back, capped at seats_total, using a pipeline
// update so the cap is applied server side.
func (r *mongoTripRepository) ReleaseSeats(ctx context.Context, id int64, seats int) (*model.Trip, error) {
	if seats <= 0 {
		return nil, tripserrors.ErrInvalidSeats
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "available_seats", Value: bson.D{{Key: "$min", Value: bson.A{
				"$seats_total",
				bson.D{{Key: "$add", Value: bson.A{"$available_seats", seats}}},
			}}}},
			{Key: "updated_at", Value: time.Now().UTC().Truncate(time.Millisecond)},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var trip model.Trip
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", tripserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to release seats: %w", err)
	}
	return &trip, nil
}

func (r *mongoTripRepository) find(ctx context.Context, filter bson.M) ([]*model.Trip, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer cursor.Close(ctx)

	trips := []*model.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	return trips, nil
}

func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
