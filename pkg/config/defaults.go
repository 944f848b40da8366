package config

import "time"

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

const (
	DefaultStorageDriver = StorageMemory

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carpool"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultSessionTTL        = 24 * time.Hour
	DefaultSessionCookieName = "carpool_session"
	DefaultBcryptCost        = 10
	MinSessionSecretLength   = 32

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultEventsTopic          = "carpool.events"
	DefaultEventsDLQTopic       = "carpool.events.dlq"
	DefaultNotificationsGroupID = "carpool-notifications"

	DefaultPaginationLimit = 20
	MaxPaginationLimit     = 100
)
