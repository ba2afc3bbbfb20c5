package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ProviderRepository is a PostgreSQL implementation of
// repository.ProviderRepository.
type ProviderRepository struct {
	q Querier
}

// NewProviderRepository creates a new PostgreSQL provider repository.
func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{q: db}
}

const providerColumns = `
	id, name, phone, service_type, is_active, is_available,
	lat, lng, heading, zone_id,
	accepted_count, completed_count, cancelled_count, rejected_count
`

// Create adds a new provider.
func (r *ProviderRepository) Create(ctx context.Context, provider *domain.Provider) error {
	query := `
		INSERT INTO providers (
			id, name, phone, service_type, is_active, is_available,
			lat, lng, heading, zone_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		provider.ID,
		provider.Name,
		provider.Phone,
		provider.ServiceType,
		provider.IsActive,
		provider.IsAvailable,
		provider.Lat,
		provider.Lng,
		provider.Heading,
		provider.ZoneID,
	)

	return err
}

// GetByID retrieves a provider by ID.
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	provider, err := scanProvider(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return provider, nil
}

// GetByIDs retrieves providers by ID, skipping unknown IDs.
func (r *ProviderRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Provider, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = ANY($1)`
	return r.queryProviders(ctx, query, pq.Array(ids))
}

// GetAll retrieves all providers.
func (r *ProviderRepository) GetAll(ctx context.Context) ([]*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers ORDER BY id`
	return r.queryProviders(ctx, query)
}

func (r *ProviderRepository) queryProviders(ctx context.Context, query string, args ...any) ([]*domain.Provider, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*domain.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	return providers, rows.Err()
}

// SetAvailability flips the live duty flag.
func (r *ProviderRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	query := `UPDATE providers SET is_available = $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id, available)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateLocation stores the latest reported position.
func (r *ProviderRepository) UpdateLocation(ctx context.Context, id string, lat, lng, heading float64) error {
	query := `UPDATE providers SET lat = $2, lng = $3, heading = $4 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id, lat, lng, heading)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// IncrementCounter bumps one of the running counters.
func (r *ProviderRepository) IncrementCounter(ctx context.Context, id string, counter domain.ProviderCounter) error {
	var column string
	switch counter {
	case domain.CounterAccepted:
		column = "accepted_count"
	case domain.CounterCompleted:
		column = "completed_count"
	case domain.CounterCancelled:
		column = "cancelled_count"
	case domain.CounterRejected:
		column = "rejected_count"
	default:
		return errors.New("unknown provider counter")
	}

	query := `UPDATE providers SET ` + column + ` = ` + column + ` + 1 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func scanProvider(s scanner) (*domain.Provider, error) {
	var provider domain.Provider
	var zoneID sql.NullString

	err := s.Scan(
		&provider.ID,
		&provider.Name,
		&provider.Phone,
		&provider.ServiceType,
		&provider.IsActive,
		&provider.IsAvailable,
		&provider.Lat,
		&provider.Lng,
		&provider.Heading,
		&zoneID,
		&provider.AcceptedCount,
		&provider.CompletedCount,
		&provider.CancelledCount,
		&provider.RejectedCount,
	)
	if err != nil {
		return nil, err
	}

	provider.ZoneID = zoneID.String

	return &provider, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
