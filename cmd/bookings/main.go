package main

import (
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/handler"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/service"
	"roombook/internal/bookings/validator"
	usershandler "roombook/internal/users/handler"
	usersrepository "roombook/internal/users/repository"
	usersservice "roombook/internal/users/service"
	usersvalidator "roombook/internal/users/validator"
	"roombook/pkg/app"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/contracts"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	if cfg.UsesMongo() {
		cfg.SetMongo()
	}
	if cfg.RedisAddr != "" {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Bookings service")

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "backend", cfg.EventsBackend, "error", err)
	}

	bookingRepo := newBookingRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		validator.NewBookingValidator(cfg.Log, cfg.MaxStayNights),
		publisher,
		cfg,
	)
	cfg.Log.Info("Booking service initialized", "store", cfg.StoreBackend, "events", cfg.EventsBackend)

	handlers := []contracts.Handler{
		handler.NewBookingHandler(bookingService, cfg.Log, cfg.AuthEnabled()),
	}

	var verifier auth.TokenVerifier
	if cfg.AuthEnabled() {
		tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize token manager", "error", err)
		}
		verifier = tokens
		handlers = append(handlers, initUsers(cfg, tokens))
	} else {
		cfg.Log.Warn("JWT_SECRET not set, authentication disabled")
	}

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(publisher)
	serverApp.SetApp(handler.NewHealthHandler(bookingRepo, cfg.Log), verifier, handlers...)
	serverApp.Run()
}

func newBookingRepository(cfg *config.Config) repository.BookingRepository {
	if cfg.UsesMongo() {
		return repository.NewMongoBookingRepository(cfg)
	}
	cfg.Log.Warn("Using in-memory booking store, data is lost on restart")
	return repository.NewMemoryBookingRepository()
}

func initUsers(cfg *config.Config, tokens *auth.TokenManager) contracts.Handler {
	var repo usersrepository.UserRepository
	if cfg.UsesMongo() {
		repo = usersrepository.NewMongoUserRepository(cfg)
	} else {
		repo = usersrepository.NewMemoryUserRepository()
	}

	userService := usersservice.NewUserService(repo, usersvalidator.NewUserValidator(cfg.Log), tokens, cfg)
	return usershandler.NewAuthHandler(userService, cfg.Log)
}
