package service

import (
	"context"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// SurgeService derives the surge factor for a pickup area from live
// supply and demand. The factor is captured once at trip creation and
// pinned on the trip; later surge changes never reprice a trip.
type SurgeService struct {
	locationStore redis.LocationStoreInterface
	tripRepo      repository.TripRepository
}

// NewSurgeService creates a new SurgeService.
func NewSurgeService(
	locationStore redis.LocationStoreInterface,
	tripRepo repository.TripRepository,
) *SurgeService {
	return &SurgeService{
		locationStore: locationStore,
		tripRepo:      tripRepo,
	}
}

// SurgeConfig contains the surge tier thresholds.
type SurgeConfig struct {
	RadiusKm       float64 // Area to measure supply and demand over
	LowSurgeRatio  float64 // Demand/supply ratio for the 1.25x tier
	MedSurgeRatio  float64 // Demand/supply ratio for the 1.5x tier
	HighSurgeRatio float64 // Demand/supply ratio for the 2.0x tier
	MaxSurgeBps    int64   // Cap in basis points
}

// DefaultSurgeConfig returns the default surge configuration.
func DefaultSurgeConfig() SurgeConfig {
	return SurgeConfig{
		RadiusKm:       5.0,
		LowSurgeRatio:  1.2,
		MedSurgeRatio:  1.5,
		HighSurgeRatio: 2.0,
		MaxSurgeBps:    20000,
	}
}

// GetSurgeBps returns the surge factor in basis points (10000 = 1.0) for
// a pickup location.
func (s *SurgeService) GetSurgeBps(ctx context.Context, lat, lng float64) int64 {
	config := DefaultSurgeConfig()

	supply := s.countProvidersInArea(ctx, lat, lng, config.RadiusKm)
	demand := s.countActiveTripsInArea(ctx, lat, lng, config.RadiusKm)

	return s.surgeBps(supply, demand, config)
}

// countProvidersInArea returns the number of located providers within the
// radius.
func (s *SurgeService) countProvidersInArea(ctx context.Context, lat, lng, radiusKm float64) int {
	providers, err := s.locationStore.FindNearbyProviders(ctx, lat, lng, radiusKm)
	if err != nil {
		// Fail open: a Redis hiccup must not produce phantom surge.
		return 10
	}
	return len(providers)
}

// countActiveTripsInArea returns the number of non-terminal trips with a
// pickup inside the radius.
func (s *SurgeService) countActiveTripsInArea(ctx context.Context, lat, lng, radiusKm float64) int {
	trips, err := s.tripRepo.ListActive(ctx)
	if err != nil {
		return 0
	}

	count := 0
	for _, trip := range trips {
		if domain.HaversineKm(trip.PickupLat, trip.PickupLng, lat, lng) <= radiusKm {
			count++
		}
	}

	return count
}

// surgeBps maps the demand/supply ratio onto the tier ladder.
func (s *SurgeService) surgeBps(supply, demand int, config SurgeConfig) int64 {
	if supply == 0 {
		if demand > 0 {
			return config.MaxSurgeBps
		}
		return 10000
	}

	ratio := float64(demand) / float64(supply)

	switch {
	case ratio >= config.HighSurgeRatio:
		return config.MaxSurgeBps
	case ratio >= config.MedSurgeRatio:
		return 15000
	case ratio >= config.LowSurgeRatio:
		return 12500
	default:
		return 10000
	}
}
