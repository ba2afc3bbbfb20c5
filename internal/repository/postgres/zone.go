package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ZoneRepository is a PostgreSQL implementation of repository.ZoneRepository.
type ZoneRepository struct {
	q Querier
}

// NewZoneRepository creates a new PostgreSQL zone repository.
func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{q: db}
}

// Create adds a new zone.
func (r *ZoneRepository) Create(ctx context.Context, zone *domain.Zone) error {
	query := `
		INSERT INTO zones (id, name, center_lat, center_lng, radius_km, queue_mode)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		zone.ID,
		zone.Name,
		zone.CenterLat,
		zone.CenterLng,
		zone.RadiusKm,
		zone.QueueMode,
	)

	return err
}

// GetByID retrieves a zone by ID.
func (r *ZoneRepository) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	query := `SELECT id, name, center_lat, center_lng, radius_km, queue_mode FROM zones WHERE id = $1`

	var zone domain.Zone
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&zone.ID,
		&zone.Name,
		&zone.CenterLat,
		&zone.CenterLng,
		&zone.RadiusKm,
		&zone.QueueMode,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &zone, nil
}

// GetAll retrieves all zones.
func (r *ZoneRepository) GetAll(ctx context.Context) ([]*domain.Zone, error) {
	query := `SELECT id, name, center_lat, center_lng, radius_km, queue_mode FROM zones ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []*domain.Zone
	for rows.Next() {
		var zone domain.Zone
		if err := rows.Scan(
			&zone.ID,
			&zone.Name,
			&zone.CenterLat,
			&zone.CenterLng,
			&zone.RadiusKm,
			&zone.QueueMode,
		); err != nil {
			return nil, err
		}
		zones = append(zones, &zone)
	}

	return zones, rows.Err()
}
