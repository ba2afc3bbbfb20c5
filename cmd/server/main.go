package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/app"
	"dispatch/internal/bus"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	"dispatch/internal/notify"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/routing"
	"dispatch/internal/service"
	"dispatch/internal/ws"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Background consumers run until shutdown.
	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	// Wire dependencies.
	server := wireServer(runCtx, db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopConsumers()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(runCtx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	zoneQueueStore := internalRedis.NewZoneQueueStore(redisClient)

	// Initialize repositories.
	riderRepo := postgres.NewRiderRepository(db)
	providerRepo := postgres.NewProviderRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	offerRepo := postgres.NewOfferRepository(db)
	promoRepo := postgres.NewPromoRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	pricingRepo := postgres.NewPricingRepository(db)
	zoneRepo := postgres.NewZoneRepository(db)

	// Initialize the event bus.
	var eventBus bus.Bus
	if cfg.Kafka.Enabled {
		kafkaBus := bus.NewKafka(cfg.Kafka.Brokers)
		if err := kafkaBus.EnsureTopics(runCtx,
			bus.TopicOfferCreated, bus.TopicOfferAccepted, bus.TopicOfferResponse,
			bus.TopicTripStatus, bus.TopicLocation,
		); err != nil {
			log.Fatalf("failed to prepare kafka topics: %v", err)
		}
		eventBus = kafkaBus
		log.Println("Connected to Kafka")
	} else {
		eventBus = bus.NewMemory()
	}

	// Initialize the routing provider.
	var router routing.Router
	if cfg.Routing.Provider == "google" && cfg.Routing.GoogleAPIKey != "" {
		g, err := routing.NewGoogle(cfg.Routing.GoogleAPIKey)
		if err != nil {
			log.Fatalf("failed to create google router: %v", err)
		}
		router = g
		log.Println("Routing via Google Maps")
	} else {
		router = routing.NewEstimator(cfg.Routing.AvgSpeedKmh)
	}

	// Initialize services.
	notifier := notify.NewLogNotifier()
	fareCalc := service.NewFareCalculator()
	surgeService := service.NewSurgeService(locationStore, tripRepo)
	locator := service.NewLocator(locationStore, zoneQueueStore, providerRepo, zoneRepo)
	broadcaster := service.NewBroadcaster(
		offerRepo, tripRepo, providerRepo, lockStore, notifier, eventBus,
		cfg.Dispatch.ProviderTimeout, cfg.Dispatch.OfferLockSlack,
	)
	gateway := service.NewRetryingGateway(service.NewMockGateway(), cfg.Payment.ChargeAttempts, cfg.Payment.ChargeBackoff)
	settlementService := service.NewSettlementService(
		tripRepo, riderRepo, promoRepo, pricingRepo, walletRepo, gateway, fareCalc,
	)
	tripService := service.NewTripService(
		tripRepo, riderRepo, providerRepo, offerRepo, pricingRepo, promoRepo, walletRepo,
		locator, broadcaster, surgeService, fareCalc, router, settlementService,
		notifier, eventBus,
		service.DispatchConfig{
			ProviderTimeout:    cfg.Dispatch.ProviderTimeout,
			ProvidersPerRound:  cfg.Dispatch.ProvidersPerRound,
			MaxBroadcastRounds: cfg.Dispatch.MaxBroadcastRounds,
			SearchRadiusKm:     cfg.Dispatch.SearchRadiusKm,
		},
	)
	arbiter := service.NewArbiter(
		tripRepo, offerRepo, providerRepo, lockStore, zoneQueueStore, zoneRepo,
		eventBus, tripService,
	)
	providerService := service.NewProviderService(
		providerRepo, offerRepo, zoneRepo, locationStore, zoneQueueStore, eventBus,
	)
	riderService := service.NewRiderService(riderRepo, walletRepo)
	platformService := service.NewPlatformService(promoRepo, zoneRepo, pricingRepo)

	// Bus consumers: driver-app offer responses and the realtime bridge.
	arbiter.SubscribeResponses(runCtx, eventBus)
	hub := ws.NewHub()
	hub.BridgeBus(runCtx, eventBus)

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(tripService)
	offerHandler := handler.NewOfferHandler(arbiter)
	providerHandler := handler.NewProviderHandler(providerService)
	riderHandler := handler.NewRiderHandler(riderService)
	platformHandler := handler.NewPlatformHandler(platformService)

	// Create router.
	ginRouter := app.NewRouter(app.RouterDeps{
		TripHandler:     tripHandler,
		OfferHandler:    offerHandler,
		ProviderHandler: providerHandler,
		RiderHandler:    riderHandler,
		PlatformHandler: platformHandler,
		Hub:             hub,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      ginRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
