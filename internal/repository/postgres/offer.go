package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// OfferRepository is a PostgreSQL implementation of
// repository.OfferRepository.
type OfferRepository struct {
	q Querier
}

// NewOfferRepository creates a new PostgreSQL offer repository.
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{q: db}
}

const offerColumns = `
	id, trip_id, provider_id, round, status, expires_at, created_at, responded_at
`

// Create persists a new offer.
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (id, trip_id, provider_id, round, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		offer.ID,
		offer.TripID,
		offer.ProviderID,
		offer.Round,
		offer.Status,
		offer.ExpiresAt,
		offer.CreatedAt,
	)

	return err
}

// GetByID retrieves an offer by ID.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return offer, nil
}

// GetPendingByProvider returns the provider's outstanding offer, or nil.
func (r *OfferRepository) GetPendingByProvider(ctx context.Context, providerID string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE provider_id = $1 AND status = 'pending' LIMIT 1`

	offer, err := scanOffer(r.q.QueryRowContext(ctx, query, providerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return offer, nil
}

// ListByTrip retrieves all offers ever issued for a trip.
func (r *OfferRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE trip_id = $1 ORDER BY round, created_at`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}

	return offers, rows.Err()
}

// Accept moves a pending offer to accepted.
func (r *OfferRepository) Accept(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, id, domain.OfferStatusAccepted, at)
}

// Reject moves a pending offer to rejected.
func (r *OfferRepository) Reject(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, id, domain.OfferStatusRejected, at)
}

// Expire moves a pending offer to expired.
func (r *OfferRepository) Expire(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, id, domain.OfferStatusExpired, at)
}

// transition only ever moves an offer out of pending, so concurrent
// responders cannot both land a terminal status.
func (r *OfferRepository) transition(ctx context.Context, id string, to domain.OfferStatus, at time.Time) (bool, error) {
	query := `UPDATE offers SET status = $2, responded_at = $3 WHERE id = $1 AND status = 'pending'`

	result, err := r.q.ExecContext(ctx, query, id, to, at)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// ExpireRound expires every still-pending offer of a broadcast round and
// returns the affected provider IDs.
func (r *OfferRepository) ExpireRound(ctx context.Context, tripID string, round int, at time.Time) ([]string, error) {
	query := `
		UPDATE offers SET status = 'expired', responded_at = $3
		WHERE trip_id = $1 AND round = $2 AND status = 'pending'
		RETURNING provider_id
	`

	rows, err := r.q.QueryContext(ctx, query, tripID, round, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providerIDs []string
	for rows.Next() {
		var providerID string
		if err := rows.Scan(&providerID); err != nil {
			return nil, err
		}
		providerIDs = append(providerIDs, providerID)
	}

	return providerIDs, rows.Err()
}

func scanOffer(s scanner) (*domain.Offer, error) {
	var offer domain.Offer
	var respondedAt sql.NullTime

	err := s.Scan(
		&offer.ID,
		&offer.TripID,
		&offer.ProviderID,
		&offer.Round,
		&offer.Status,
		&offer.ExpiresAt,
		&offer.CreatedAt,
		&respondedAt,
	)
	if err != nil {
		return nil, err
	}

	if respondedAt.Valid {
		offer.RespondedAt = respondedAt.Time
	}

	return &offer, nil
}
