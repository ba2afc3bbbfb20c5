package repository

import (
	"context"

	"dispatch/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	// Create adds a new rider.
	Create(ctx context.Context, rider *domain.Rider) error

	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.Rider, error)

	// GetAll retrieves all riders.
	GetAll(ctx context.Context) ([]*domain.Rider, error)

	// DebitReferralBalance subtracts the amount from the rider's referral
	// credit if the balance covers it. Returns false otherwise.
	DebitReferralBalance(ctx context.Context, id string, amount domain.Money) (bool, error)

	// CreditReferralBalance adds referral credit to the rider.
	CreditReferralBalance(ctx context.Context, id string, amount domain.Money) error
}
