package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// OfferRepository defines the persistence operations for offers.
//
// Accept, Reject and Expire are conditional updates that only move an
// offer out of the pending state, so concurrent responders cannot both
// land a terminal status.
type OfferRepository interface {
	// Create persists a new offer.
	Create(ctx context.Context, offer *domain.Offer) error

	// GetByID retrieves an offer by ID.
	GetByID(ctx context.Context, id string) (*domain.Offer, error)

	// GetPendingByProvider returns the provider's outstanding offer, or
	// nil when there is none.
	GetPendingByProvider(ctx context.Context, providerID string) (*domain.Offer, error)

	// ListByTrip retrieves all offers ever issued for a trip.
	ListByTrip(ctx context.Context, tripID string) ([]*domain.Offer, error)

	// Accept moves a pending offer to accepted. Returns false when the
	// offer already left the pending state.
	Accept(ctx context.Context, id string, at time.Time) (bool, error)

	// Reject moves a pending offer to rejected. Returns false when the
	// offer already left the pending state.
	Reject(ctx context.Context, id string, at time.Time) (bool, error)

	// Expire moves a pending offer to expired. Returns false when the
	// offer already left the pending state.
	Expire(ctx context.Context, id string, at time.Time) (bool, error)

	// ExpireRound expires every still-pending offer of a broadcast round
	// and returns the affected provider IDs.
	ExpireRound(ctx context.Context, tripID string, round int, at time.Time) ([]string, error)
}
