package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestDirectTransactionManager(t *testing.T) {
	tm := NewDirectTransactionManager()
	want := errors.New("boom")

	called := false
	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return want
	})

	if !called {
		t.Fatal("fn was not called")
	}
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

// lazyClient never talks to a server unless an operation is sent, which these
// tests avoid.
func lazyClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(),
		options.Client().ApplyURI("mongodb://127.0.0.1:27017").SetServerSelectionTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

func TestMongoTransactionManager_StandaloneFallsBackThroughAppError(t *testing.T) {
	tm := NewTransactionManager(lazyClient(t), logger.Discard()).(*mongoTransactionManager)
	standalone := mongo.CommandError{
		Code:    illegalOperation,
		Message: "Transaction numbers are only allowed on a replica set member or mongos",
	}

	calls := 0
	fn := func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return apperrors.Internal("Failed to reserve seats", standalone)
		}
		return nil
	}

	if err := tm.ExecuteTransaction(context.Background(), fn); err != nil {
		t.Fatalf("err = %v, want fallback to succeed", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !tm.unsupported.Load() {
		t.Error("manager should remember that transactions are unsupported")
	}

	// Later calls go straight to fn.
	if err := tm.ExecuteTransaction(context.Background(), fn); err != nil {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestMongoTransactionManager_ReturnsAppErrorsUnchanged(t *testing.T) {
	tm := NewTransactionManager(lazyClient(t), logger.Discard()).(*mongoTransactionManager)
	want := apperrors.InsufficientSeats(1, 2)

	calls := 0
	err := tm.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		calls++
		return want
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !apperrors.HasCode(err, apperrors.CodeInsufficientSeats) {
		t.Errorf("err = %v, want INSUFFICIENT_SEATS", err)
	}
	if tm.unsupported.Load() {
		t.Error("a domain error must not disable transactions")
	}
}

func TestWithTimeout_KeepsTransactionSession(t *testing.T) {
	sess, err := lazyClient(t).StartSession()
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer sess.EndSession(context.Background())

	sessCtx := mongo.NewSessionContext(context.Background(), sess)
	ctx, cancel := WithTimeout(sessCtx, time.Second)
	defer cancel()

	if mongo.SessionFromContext(ctx) != sess {
		t.Error("derived context lost the transaction session")
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Error("operations inside a transaction should still get a deadline")
	}
}

func TestWithTimeout_EarlierDeadlineWins(t *testing.T) {
	parent, cancelParent := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelParent()

	ctx, cancel := WithTimeout(parent, time.Hour)
	defer cancel()

	deadline, _ := ctx.Deadline()
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline %v ignores the parent's", deadline)
	}
}
