package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roomres"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultStorageBackend    = StorageMongo

	DefaultRedisDB = 0

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultAdmissionQueueSize = 1024
	DefaultAdmissionTimeout   = 10 * time.Second

	DefaultKafkaEnabled              = false
	DefaultReservationEventsTopic    = "reservation-events"
	DefaultReservationEventsDLQTopic = "dlq-reservation-events"
	DefaultEventPublishTimeout       = 2 * time.Second
	DefaultNotifierGroupID           = "reservation-notifier"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)
