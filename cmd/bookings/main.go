package main

import (
	"voyara/internal/bookings/handler"
	"voyara/internal/bookings/repository"
	"voyara/internal/bookings/service"
	"voyara/internal/bookings/validator"
	customersrepo "voyara/internal/customers/repository"
	"voyara/internal/inventory/calendar"
	inventoryrepo "voyara/internal/inventory/repository"
	"voyara/internal/inventory/resolver"
	"voyara/pkg/app"
	"voyara/pkg/config"
	"voyara/pkg/kafka"
	kafkaconfig "voyara/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	bookingService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	customerRepo := customersrepo.NewMongoCustomerRepository(cfg)
	assetRepo := inventoryrepo.NewMongoAssetRepository(cfg)

	assetResolver := resolver.New(assetRepo)
	reconciler := calendar.NewReconciler(assetRepo, cfg.Log, cfg.ReconcileMaxAttempts, cfg.ReconcileRetryDelay)

	bookingService := service.NewBookingService(
		bookingRepo,
		customerRepo,
		assetResolver,
		reconciler,
		bookingValidator,
		initPublisher(cfg),
		cfg,
	)

	cfg.Log.Info("Bookings service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

// initPublisher wires the Kafka submission-event producer. The service runs
// without one; publishing is fire-and-forget either way.
func initPublisher(cfg *config.Config) service.EventPublisher {
	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Warn("Kafka producer disabled", "error", err)
		return nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, service.TopicBookingSubmitted)
	if err != nil {
		cfg.Log.Warn("Kafka producer disabled", "error", err)
		return nil
	}

	cfg.Log.Info("Kafka producer configured", "topic", service.TopicBookingSubmitted)
	return producer
}
