package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"roombook/internal/bookings/events"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
	"syscall"
)

const ServiceName = "booking-events"

// booking-events tails the booking topic and writes every event to the
// structured log as an audit trail.
func main() {
	cfg := config.Load(ServiceName)

	kcfg, err := kafka_config.Load(cfg.KafkaBrokers)
	if err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(kcfg, cfg.KafkaTopic, cfg.KafkaGroupID, events.NewAuditHandler(cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming booking events", "topic", cfg.KafkaTopic, "group_id", cfg.KafkaGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close kafka consumer", "error", err)
	}
	cfg.Log.Info("Booking events consumer stopped")
}
