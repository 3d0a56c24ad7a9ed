package main

import (
	"context"
	"roomres/internal/health"
	"roomres/internal/reservations/admission"
	"roomres/internal/reservations/events"
	"roomres/internal/reservations/handler"
	"roomres/internal/reservations/metrics"
	"roomres/internal/reservations/registry"
	"roomres/internal/reservations/repository"
	"roomres/internal/reservations/service"
	"roomres/internal/reservations/validator"
	"roomres/pkg/app"
	"roomres/pkg/auth"
	"roomres/pkg/config"
	"roomres/pkg/kafka"
	kafka_config "roomres/pkg/kafka/config"
	kafka_middleware "roomres/pkg/kafka/middleware"

	"github.com/prometheus/client_golang/prometheus"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Reservations service")

	serverApp := app.NewApplication()

	reg := initRegistry(cfg)
	worker := admission.NewWorker(reg, cfg.Log.Component("admission"), cfg.AdmissionQueueSize, cfg.AdmissionTimeout)
	worker.Start()
	metrics.Register(prometheus.DefaultRegisterer, worker.Pending)
	serverApp.OnShutdown("admission-worker", worker.Stop)
	publisher := initPublisher(cfg, serverApp)

	reservationService := service.NewReservationService(
		reg,
		worker,
		validator.NewReservationValidator(cfg.Log),
		auth.ScopeAuthorizer{},
		publisher,
		cfg,
	)
	cfg.Log.Info("Reservation service initialized", "storage_backend", cfg.StorageBackend)

	serverApp.SetApp(cfg,
		health.NewHealthHandler(reg, worker.Pending, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
	)
	serverApp.Run()
}

func initRegistry(cfg *config.Config) *registry.Registry {
	var store repository.Store
	if cfg.UsesMongo() {
		cfg.SetMongo()
		store = repository.NewMongoStore(cfg)
	} else {
		store = repository.NewMemoryStore()
		cfg.Log.Warn("Using in-memory reservation store, data is lost on restart")
	}
	cfg.SetRedis()

	reg := registry.New(store, cfg.Log.Component("registry"))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()
	if err := reg.Load(ctx); err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to load resource registry", "error", err)
	}
	return reg
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reservation events are not published")
		return events.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQTopic, cfg.Log.Component("kafka_producer"))
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producerMetrics := kafka_middleware.NewMetrics()
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(producerMetrics))
		serverApp.OnShutdown("kafka-metrics", func(context.Context) error {
			cfg.Log.Info("Kafka producer metrics", producerMetrics.LogAttrs()...)
			return nil
		})
	}
	serverApp.OnShutdown("kafka-producer", func(context.Context) error {
		return producer.Close()
	})

	cfg.Log.Info("Publishing reservation events", "topic", cfg.ReservationEventsTopic)
	return events.NewKafkaPublisher(producer, ServiceName)
}
