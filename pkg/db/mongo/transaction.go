package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
)

type TransactionFunc func(ctx context.Context) error

// TransactionManager runs fn atomically when the backend allows it. fn must
// use the ctx it is given so that its reads and writes join the transaction.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// illegalOperation is returned by standalone servers, which have no
// transaction support.
const illegalOperation = 20

type mongoTransactionManager struct {
	client      *mongo.Client
	log         *logger.Logger
	unsupported atomic.Bool
}

func NewTransactionManager(client *mongo.Client, log *logger.Logger) TransactionManager {
	return &mongoTransactionManager{
		client: client,
		log:    log,
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if m.unsupported.Load() {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})

	if err != nil {
		// Services wrap repository errors in AppErrors, so look through them
		// for the standalone-server code before anything else.
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == illegalOperation {
			m.unsupported.Store(true)
			m.log.Warn("MongoDB deployment does not support transactions, running without them")
			return fn(ctx)
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

type directTransactionManager struct{}

// NewDirectTransactionManager returns a manager that simply calls fn. It
// backs the in-memory repositories, whose operations are individually atomic.
func NewDirectTransactionManager() TransactionManager {
	return directTransactionManager{}
}

func (directTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return fn(ctx)
}
