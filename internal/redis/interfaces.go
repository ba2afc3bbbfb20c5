package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for provider location
// operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, providerID string, lat, lng float64) error
	FindNearbyProviders(ctx context.Context, lat, lng, radiusKm float64) ([]ProviderLocation, error)
	RemoveLocation(ctx context.Context, providerID string) error
}

// LockStoreInterface defines the interface for the outstanding-offer lock.
type LockStoreInterface interface {
	AcquireOfferLock(ctx context.Context, providerID string, ttl time.Duration) (bool, error)
	ReleaseOfferLock(ctx context.Context, providerID string) error
}

// ZoneQueueStoreInterface defines the interface for zone FIFO queues.
type ZoneQueueStoreInterface interface {
	Enqueue(ctx context.Context, zoneID, providerID string) error
	Remove(ctx context.Context, zoneID, providerID string) error
	Position(ctx context.Context, zoneID, providerID string) (int64, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface  = (*LocationStore)(nil)
	_ LockStoreInterface      = (*LockStore)(nil)
	_ ZoneQueueStoreInterface = (*ZoneQueueStore)(nil)
)
