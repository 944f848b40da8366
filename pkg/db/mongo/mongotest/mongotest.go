// Package mongotest connects repository tests to a real MongoDB. Tests are
// skipped unless MONGO_URI is set.
package mongotest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"carpool/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ConnectionTimeout = 10 * time.Second

// NewDatabase returns a fresh database that is dropped when the test ends.
func NewDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(config.EnvMongoURI)
	if uri == "" {
		t.Skipf("%s not set, skipping MongoDB test", config.EnvMongoURI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	db := client.Database(fmt.Sprintf("carpool_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("failed to drop %s: %v", db.Name(), err)
		}
		_ = client.Disconnect(ctx)
	})
	return db
}

// Config carries the repository timeouts used by the Mongo adapters.
func Config() *config.Config {
	return &config.Config{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
