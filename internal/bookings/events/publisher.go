package events

import (
	"fmt"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

// NewPublisher builds the publisher selected by EVENTS_BACKEND.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsBackendKafka:
		kcfg, err := kafka_config.Load(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		kcfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kcfg, cfg.KafkaTopic, cfg.Log)
		if err != nil {
			return nil, err
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		return NewKafkaPublisher(producer), nil

	case config.EventsBackendAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)

	case config.EventsBackendNone, "":
		return NewNoopPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}
