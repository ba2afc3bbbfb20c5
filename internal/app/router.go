package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	"dispatch/internal/ws"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	OfferHandler    *handler.OfferHandler
	ProviderHandler *handler.ProviderHandler
	RiderHandler    *handler.RiderHandler
	PlatformHandler *handler.PlatformHandler
	Hub             *ws.Hub
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Rider routes.
		riders := v1.Group("/riders")
		{
			riders.POST("", deps.RiderHandler.Create)
			riders.GET("", deps.RiderHandler.GetAll)
			riders.GET("/:id", deps.RiderHandler.Get)
		}

		// Provider routes.
		providers := v1.Group("/providers")
		{
			providers.POST("", deps.ProviderHandler.Register)
			providers.GET("", deps.ProviderHandler.GetAll)
			providers.GET("/:id", deps.ProviderHandler.Get)
			providers.PUT("/:id/availability", deps.ProviderHandler.SetAvailability)
			providers.PUT("/:id/location", deps.ProviderHandler.UpdateLocation)
			providers.GET("/:id/offer", deps.ProviderHandler.PendingOffer)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.POST("/:id/provider_cancel", deps.TripHandler.ProviderCancelTrip)
			trips.POST("/:id/arrived", deps.TripHandler.MarkArrived)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/complete", deps.TripHandler.CompleteTrip)
			trips.GET("/:id/receipt", deps.TripHandler.GetReceipt)
			trips.GET("/:id/offers", deps.TripHandler.ListOffers)
		}

		// Offer routes.
		offers := v1.Group("/offers")
		{
			offers.POST("/:id/accept", deps.OfferHandler.Accept)
			offers.POST("/:id/reject", deps.OfferHandler.Reject)
		}

		// Wallet routes.
		v1.GET("/wallets/:account", deps.RiderHandler.GetWallet)

		// Platform catalog routes.
		v1.POST("/promos", deps.PlatformHandler.CreatePromo)
		v1.GET("/promos/:code", deps.PlatformHandler.GetPromo)
		v1.POST("/zones", deps.PlatformHandler.CreateZone)
		v1.GET("/zones", deps.PlatformHandler.GetZones)
		v1.GET("/pricing/:service_type", deps.PlatformHandler.GetPricing)

		// Realtime channel.
		v1.GET("/ws/:party", deps.Hub.Handle)
	}

	return router
}
