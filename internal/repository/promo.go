package repository

import (
	"context"

	"dispatch/internal/domain"
)

// PromoRepository defines the persistence operations for promo codes.
type PromoRepository interface {
	// Create adds a new promo code.
	Create(ctx context.Context, promo *domain.PromoCode) error

	// GetByCode retrieves a promo code.
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)

	// ConsumeUse increments the usage counter if and only if the cap has
	// not been reached. Returns false when the code is exhausted, so
	// uses_consumed can never exceed uses_cap even under concurrent
	// settlements.
	ConsumeUse(ctx context.Context, code string) (bool, error)
}
