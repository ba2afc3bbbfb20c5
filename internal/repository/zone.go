package repository

import (
	"context"

	"dispatch/internal/domain"
)

// ZoneRepository defines the persistence operations for zones.
type ZoneRepository interface {
	// Create adds a new zone.
	Create(ctx context.Context, zone *domain.Zone) error

	// GetByID retrieves a zone by ID.
	GetByID(ctx context.Context, id string) (*domain.Zone, error)

	// GetAll retrieves all zones.
	GetAll(ctx context.Context) ([]*domain.Zone, error)
}
