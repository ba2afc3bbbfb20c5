package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RiderRepository is a PostgreSQL implementation of
// repository.RiderRepository.
type RiderRepository struct {
	q Querier
}

// NewRiderRepository creates a new PostgreSQL rider repository.
func NewRiderRepository(db *sql.DB) *RiderRepository {
	return &RiderRepository{q: db}
}

// Create adds a new rider.
func (r *RiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	query := `
		INSERT INTO riders (id, name, phone, referred_by, referral_balance_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		rider.ID,
		rider.Name,
		rider.Phone,
		rider.ReferredBy,
		int64(rider.ReferralBalance),
		rider.CreatedAt,
	)

	return err
}

// GetByID retrieves a rider by ID.
func (r *RiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	query := `
		SELECT id, name, phone, referred_by, referral_balance_cents, created_at
		FROM riders WHERE id = $1
	`

	rider, err := scanRider(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return rider, nil
}

// GetAll retrieves all riders.
func (r *RiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	query := `
		SELECT id, name, phone, referred_by, referral_balance_cents, created_at
		FROM riders ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*domain.Rider
	for rows.Next() {
		rider, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, rider)
	}

	return riders, rows.Err()
}

// DebitReferralBalance subtracts referral credit if the balance covers it.
func (r *RiderRepository) DebitReferralBalance(ctx context.Context, id string, amount domain.Money) (bool, error) {
	query := `
		UPDATE riders
		SET referral_balance_cents = referral_balance_cents - $2
		WHERE id = $1 AND referral_balance_cents >= $2
	`

	result, err := r.q.ExecContext(ctx, query, id, int64(amount))
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// CreditReferralBalance adds referral credit to the rider.
func (r *RiderRepository) CreditReferralBalance(ctx context.Context, id string, amount domain.Money) error {
	query := `UPDATE riders SET referral_balance_cents = referral_balance_cents + $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id, int64(amount))
	if err != nil {
		return err
	}

	return requireRow(result)
}

func scanRider(s scanner) (*domain.Rider, error) {
	var rider domain.Rider
	var referredBy sql.NullString
	var balance int64

	err := s.Scan(
		&rider.ID,
		&rider.Name,
		&rider.Phone,
		&referredBy,
		&balance,
		&rider.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rider.ReferredBy = referredBy.String
	rider.ReferralBalance = domain.Money(balance)

	return &rider, nil
}
