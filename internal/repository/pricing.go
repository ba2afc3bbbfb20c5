package repository

import (
	"context"

	"dispatch/internal/domain"
)

// PricingRepository defines read access to pricing configuration. The
// engine never writes pricing; it is owned by configuration management.
type PricingRepository interface {
	// GetByServiceType retrieves the active pricing config for a service
	// type.
	GetByServiceType(ctx context.Context, serviceType string) (*domain.PricingConfig, error)
}
