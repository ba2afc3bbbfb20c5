package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// TripRepository defines the persistence operations for trips.
//
// ConfirmProvider and Transition are conditional single-row updates; the
// at-most-one-winner and legal-transition guarantees rest on them being
// atomic compare-and-swap operations.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves recent trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// ListActive retrieves trips that have not reached a terminal state.
	ListActive(ctx context.Context) ([]*domain.Trip, error)

	// ConfirmProvider atomically sets the confirmed provider and moves the
	// trip from requested to accepted. Returns false when another provider
	// already won or the trip left the requested state.
	ConfirmProvider(ctx context.Context, tripID, providerID string, at time.Time) (bool, error)

	// Transition atomically moves the trip from one status to another,
	// stamping the matching timestamp column. Returns false when the trip
	// is not in the expected source state.
	Transition(ctx context.Context, tripID string, from, to domain.TripStatus, at time.Time) (bool, error)

	// Cancel atomically cancels the trip with a reason if it is currently
	// in one of the allowed source states.
	Cancel(ctx context.Context, tripID, reason string, at time.Time, allowed ...domain.TripStatus) (bool, error)

	// AddRejectedProviders appends providers to the trip's exclusion set.
	// The set only ever grows.
	AddRejectedProviders(ctx context.Context, tripID string, providerIDs []string) error

	// SetBroadcastRound records the current dispatch round.
	SetBroadcastRound(ctx context.Context, tripID string, round int) error

	// SaveFare stores the final breakdown and actual telemetry.
	SaveFare(ctx context.Context, tripID string, fare *domain.FareBreakdown, distanceMeters, durationSeconds int64) error

	// MarkTransferred sets the settlement flags. Returns false when the
	// trip was already settled.
	MarkTransferred(ctx context.Context, tripID string) (bool, error)
}
