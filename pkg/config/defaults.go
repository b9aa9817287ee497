package config

import "time"

const (
	StoreBackendMongo  = "mongo"
	StoreBackendMemory = "memory"

	EventsBackendNone  = "none"
	EventsBackendKafka = "kafka"
	EventsBackendAMQP  = "amqp"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roombook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultStoreBackend = StoreBackendMongo

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMaxStayNights   = 90
	DefaultPaginationLimit = 100

	DefaultJWTTTL     = 24 * time.Hour
	DefaultBcryptCost = 10

	DefaultEventsBackend = EventsBackendNone
	DefaultKafkaBrokers  = "localhost:9092"
	DefaultKafkaTopic    = "booking-events"
	DefaultKafkaGroupID  = "booking-events-audit"
	DefaultAMQPQueue     = "booking-events"

	DefaultRedisDB = 0
)
