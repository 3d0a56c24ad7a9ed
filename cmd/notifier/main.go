package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"roomres/internal/notifier"
	"roomres/pkg/config"
	"roomres/pkg/kafka"
	kafka_config "roomres/pkg/kafka/config"
	kafka_middleware "roomres/pkg/kafka/middleware"
	"syscall"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Notifier service")

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReservationEventsTopic,
		cfg.NotifierGroupID,
		cfg.ReservationEventsDLQTopic,
		notifier.New(cfg.Log.Component("notifier")).Handle,
		cfg.Log.Component("kafka_consumer"),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming reservation events",
		"topic", cfg.ReservationEventsTopic,
		"group_id", cfg.NotifierGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	cfg.Log.Info("Shutdown signal received, closing consumer", "lag", consumer.Lag())
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped", metrics.LogAttrs()...)
}
