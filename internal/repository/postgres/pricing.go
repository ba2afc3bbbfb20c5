package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PricingRepository is a PostgreSQL implementation of
// repository.PricingRepository.
type PricingRepository struct {
	q Querier
}

// NewPricingRepository creates a new PostgreSQL pricing repository.
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{q: db}
}

// GetByServiceType retrieves the active pricing config for a service type.
func (r *PricingRepository) GetByServiceType(ctx context.Context, serviceType string) (*domain.PricingConfig, error) {
	query := `
		SELECT id, city, service_type, currency,
			base_fare_cents, per_km_cents, per_minute_cents,
			minimum_fare_cents, cancellation_fee_cents,
			commission_type, commission_value, tax_rate_bps
		FROM pricing_configs
		WHERE service_type = $1 AND is_active = TRUE
		LIMIT 1
	`

	var cfg domain.PricingConfig
	var baseFare, perKm, perMinute, minimumFare, cancellationFee int64

	err := r.q.QueryRowContext(ctx, query, serviceType).Scan(
		&cfg.ID,
		&cfg.City,
		&cfg.ServiceType,
		&cfg.Currency,
		&baseFare,
		&perKm,
		&perMinute,
		&minimumFare,
		&cancellationFee,
		&cfg.CommissionType,
		&cfg.CommissionValue,
		&cfg.TaxRateBps,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	cfg.BaseFare = domain.Money(baseFare)
	cfg.PerKm = domain.Money(perKm)
	cfg.PerMinute = domain.Money(perMinute)
	cfg.MinimumFare = domain.Money(minimumFare)
	cfg.CancellationFee = domain.Money(cancellationFee)

	return &cfg, nil
}
