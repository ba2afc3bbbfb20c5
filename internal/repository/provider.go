package repository

import (
	"context"

	"dispatch/internal/domain"
)

// ProviderRepository defines the persistence operations for providers.
type ProviderRepository interface {
	// Create adds a new provider.
	Create(ctx context.Context, provider *domain.Provider) error

	// GetByID retrieves a provider by ID.
	GetByID(ctx context.Context, id string) (*domain.Provider, error)

	// GetByIDs retrieves providers by ID, skipping unknown IDs.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Provider, error)

	// GetAll retrieves all providers.
	GetAll(ctx context.Context) ([]*domain.Provider, error)

	// SetAvailability flips the live duty flag.
	SetAvailability(ctx context.Context, id string, available bool) error

	// UpdateLocation stores the latest reported position.
	UpdateLocation(ctx context.Context, id string, lat, lng, heading float64) error

	// IncrementCounter bumps one of the running counters.
	IncrementCounter(ctx context.Context, id string, counter domain.ProviderCounter) error
}
