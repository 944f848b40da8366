package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	bookingserrors "carpool/internal/bookings/errors"
	"carpool/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Trip_locks"

	DefaultLockTTL       = 10 * time.Second
	DefaultLockRetryWait = 25 * time.Millisecond
)

// TripLocker serialises ledger transitions per trip. The returned unlock
// function must be called exactly once.
type TripLocker interface {
	Lock(ctx context.Context, tripID int64) (unlock func(), err error)
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

type localTripLocker struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

// NewLocalTripLocker returns an in-process keyed lock. Entries are removed
// once no goroutine holds or waits for them.
func NewLocalTripLocker() TripLocker {
	return &localTripLocker{locks: make(map[int64]*keyedLock)}
}

func (l *localTripLocker) Lock(ctx context.Context, tripID int64) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[tripID]
	if !ok {
		lk = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[tripID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.sem
				l.release(tripID, lk)
			})
		}, nil
	case <-ctx.Done():
		l.release(tripID, lk)
		return nil, fmt.Errorf("%w: trip %d: %v", bookingserrors.ErrTripLockTimeout, tripID, ctx.Err())
	}
}

func (l *localTripLocker) release(tripID int64, lk *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, tripID)
	}
}

func (l *localTripLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

type tripLockDocument struct {
	ID        string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// mongoTripLocker adds an advisory lock document on top of the local lock so
// that several API processes sharing one database also take turns. Lock
// documents expire after ttl in case a holder dies without unlocking.
type mongoTripLocker struct {
	local      TripLocker
	collection *mongo.Collection
	owner      string
	ttl        time.Duration
	retryWait  time.Duration
	log        *logger.Logger
}

func NewMongoTripLocker(db *mongo.Database, log *logger.Logger) TripLocker {
	return &mongoTripLocker{
		local:      NewLocalTripLocker(),
		collection: db.Collection(LockCollectionName),
		owner:      uuid.NewString(),
		ttl:        DefaultLockTTL,
		retryWait:  DefaultLockRetryWait,
		log:        log,
	}
}

func (l *mongoTripLocker) Lock(ctx context.Context, tripID int64) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, tripID)
	if err != nil {
		return nil, err
	}

	lockID := "trip_lock_" + strconv.FormatInt(tripID, 10)
	for {
		now := time.Now().UTC()
		_, err := l.collection.InsertOne(ctx, tripLockDocument{
			ID:        lockID,
			Owner:     l.owner,
			CreatedAt: now,
			ExpiresAt: now.Add(l.ttl),
		})
		if err == nil {
			return func() {
				l.unlock(lockID)
				unlockLocal()
			}, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			unlockLocal()
			return nil, fmt.Errorf("failed to acquire trip lock: %w", err)
		}

		// The TTL monitor only runs once a minute; clear stale locks eagerly.
		if _, err := l.collection.DeleteOne(ctx, bson.M{
			"_id":        lockID,
			"expires_at": bson.M{"$lte": now},
		}); err != nil {
			l.log.Warn("Failed to clear expired trip lock", "lock_id", lockID, "error", err)
		}

		select {
		case <-time.After(l.retryWait):
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("%w: trip %d: %v", bookingserrors.ErrTripLockTimeout, tripID, ctx.Err())
		}
	}
}

func (l *mongoTripLocker) unlock(lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := l.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": l.owner}); err != nil {
		l.log.Warn("Failed to release trip lock", "lock_id", lockID, "error", err)
	}
}
