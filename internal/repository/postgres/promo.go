package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PromoRepository is a PostgreSQL implementation of
// repository.PromoRepository.
type PromoRepository struct {
	q Querier
}

// NewPromoRepository creates a new PostgreSQL promo repository.
func NewPromoRepository(db *sql.DB) *PromoRepository {
	return &PromoRepository{q: db}
}

// Create adds a new promo code.
func (r *PromoRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	query := `
		INSERT INTO promo_codes (code, discount_type, discount_value, uses_cap, uses_consumed, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		promo.Code,
		promo.DiscountType,
		promo.DiscountValue,
		promo.UsesCap,
		promo.UsesConsumed,
		promo.ValidFrom,
		promo.ValidUntil,
	)

	return err
}

// GetByCode retrieves a promo code.
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `
		SELECT code, discount_type, discount_value, uses_cap, uses_consumed, valid_from, valid_until
		FROM promo_codes WHERE code = $1
	`

	var promo domain.PromoCode
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&promo.Code,
		&promo.DiscountType,
		&promo.DiscountValue,
		&promo.UsesCap,
		&promo.UsesConsumed,
		&promo.ValidFrom,
		&promo.ValidUntil,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &promo, nil
}

// ConsumeUse increments the usage counter only while under the cap. The
// conditional update keeps uses_consumed <= uses_cap under concurrent
// settlements.
func (r *PromoRepository) ConsumeUse(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE promo_codes
		SET uses_consumed = uses_consumed + 1
		WHERE code = $1 AND uses_consumed < uses_cap
	`

	result, err := r.q.ExecContext(ctx, query, code)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}
