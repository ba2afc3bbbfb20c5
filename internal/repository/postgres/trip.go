package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

const tripColumns = `
	id, rider_id, service_type,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	status, confirmed_provider_id, broadcast_round, rejected_provider_ids,
	payment_mode, promo_code, tip_cents, surge_bps, estimated_fare_cents,
	fare_base, fare_distance, fare_time, fare_surge, fare_promo_discount,
	fare_referral_credit, fare_min_adjustment, fare_tax, fare_tip, fare_toll,
	fare_cancellation_fee, fare_total, currency,
	distance_meters, duration_seconds,
	is_transferred, is_provider_earning_set,
	requested_at, accepted_at, arrived_at, started_at, completed_at,
	cancelled_at, cancel_reason
`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (
			id, rider_id, service_type,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			status, confirmed_provider_id, broadcast_round, rejected_provider_ids,
			payment_mode, promo_code, tip_cents, surge_bps, estimated_fare_cents,
			is_transferred, is_provider_earning_set, requested_at, cancel_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.RiderID,
		trip.ServiceType,
		trip.PickupLat,
		trip.PickupLng,
		trip.DropoffLat,
		trip.DropoffLng,
		trip.Status,
		nullString(trip.ConfirmedProviderID),
		trip.BroadcastRound,
		pq.Array(trip.RejectedProviderIDs),
		trip.PaymentMode,
		trip.PromoCode,
		int64(trip.TipAmount),
		trip.SurgeBps,
		int64(trip.EstimatedFare),
		trip.IsTransferred,
		trip.IsProviderEarningSet,
		trip.RequestedAt,
		trip.CancelReason,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetAll retrieves recent trips.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY requested_at DESC LIMIT 100`
	return r.queryTrips(ctx, query)
}

// ListActive retrieves trips that have not reached a terminal state.
func (r *TripRepository) ListActive(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status NOT IN ('completed', 'cancelled')`
	return r.queryTrips(ctx, query)
}

func (r *TripRepository) queryTrips(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// ConfirmProvider atomically sets the confirmed provider. The WHERE clause
// is the compare-and-swap that guarantees at most one winner per trip.
func (r *TripRepository) ConfirmProvider(ctx context.Context, tripID, providerID string, at time.Time) (bool, error) {
	query := `
		UPDATE trips
		SET status = 'accepted', confirmed_provider_id = $2, accepted_at = $3
		WHERE id = $1 AND status = 'requested' AND confirmed_provider_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, tripID, providerID, at)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// Transition atomically moves the trip between statuses.
func (r *TripRepository) Transition(ctx context.Context, tripID string, from, to domain.TripStatus, at time.Time) (bool, error) {
	column, ok := statusTimestampColumn(to)
	if !ok {
		return false, errors.New("no timestamp column for status " + string(to))
	}

	query := `UPDATE trips SET status = $1, ` + column + ` = $2 WHERE id = $3 AND status = $4`

	result, err := r.q.ExecContext(ctx, query, to, at, tripID, from)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// Cancel atomically cancels the trip when it is in an allowed source state.
func (r *TripRepository) Cancel(ctx context.Context, tripID, reason string, at time.Time, allowed ...domain.TripStatus) (bool, error) {
	states := make([]string, len(allowed))
	for i, s := range allowed {
		states[i] = string(s)
	}

	query := `
		UPDATE trips
		SET status = 'cancelled', cancelled_at = $2, cancel_reason = $3
		WHERE id = $1 AND status = ANY($4)
	`

	result, err := r.q.ExecContext(ctx, query, tripID, at, reason, pq.Array(states))
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// AddRejectedProviders appends providers to the trip's exclusion set.
func (r *TripRepository) AddRejectedProviders(ctx context.Context, tripID string, providerIDs []string) error {
	if len(providerIDs) == 0 {
		return nil
	}

	// array_cat keeps the set append-only; duplicates are filtered on read
	// by the dispatch loop's exclusion map.
	query := `
		UPDATE trips
		SET rejected_provider_ids = array_cat(rejected_provider_ids, $2)
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query, tripID, pq.Array(providerIDs))
	return err
}

// SetBroadcastRound records the current dispatch round.
func (r *TripRepository) SetBroadcastRound(ctx context.Context, tripID string, round int) error {
	query := `UPDATE trips SET broadcast_round = $2 WHERE id = $1`

	_, err := r.q.ExecContext(ctx, query, tripID, round)
	return err
}

// SaveFare stores the final breakdown and actual telemetry.
func (r *TripRepository) SaveFare(ctx context.Context, tripID string, fare *domain.FareBreakdown, distanceMeters, durationSeconds int64) error {
	query := `
		UPDATE trips
		SET fare_base = $2, fare_distance = $3, fare_time = $4, fare_surge = $5,
			fare_promo_discount = $6, fare_referral_credit = $7,
			fare_min_adjustment = $8, fare_tax = $9, fare_tip = $10,
			fare_toll = $11, fare_cancellation_fee = $12, fare_total = $13,
			currency = $14, surge_bps = $15,
			distance_meters = $16, duration_seconds = $17
		WHERE id = $1
	`

	_, err := r.q.ExecContext(ctx, query,
		tripID,
		int64(fare.Base),
		int64(fare.DistanceCost),
		int64(fare.TimeCost),
		int64(fare.SurgeFee),
		int64(fare.PromoDiscount),
		int64(fare.ReferralCredit),
		int64(fare.MinimumFareAdjustment),
		int64(fare.Tax),
		int64(fare.Tip),
		int64(fare.Toll),
		int64(fare.CancellationFee),
		int64(fare.Total),
		fare.Currency,
		fare.SurgeBps,
		distanceMeters,
		durationSeconds,
	)

	return err
}

// MarkTransferred sets the settlement flags exactly once.
func (r *TripRepository) MarkTransferred(ctx context.Context, tripID string) (bool, error) {
	query := `
		UPDATE trips
		SET is_transferred = TRUE, is_provider_earning_set = TRUE
		WHERE id = $1 AND is_transferred = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, tripID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (*domain.Trip, error) {
	var trip domain.Trip
	var confirmedProvider sql.NullString
	var rejected pq.StringArray
	var tipCents, surgeBps, estimated int64
	var fareBase, fareDistance, fareTime, fareSurge sql.NullInt64
	var farePromo, fareReferral, fareMinAdj, fareTax sql.NullInt64
	var fareTip, fareToll, fareCancel, fareTotal sql.NullInt64
	var currency sql.NullString
	var acceptedAt, arrivedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := s.Scan(
		&trip.ID,
		&trip.RiderID,
		&trip.ServiceType,
		&trip.PickupLat,
		&trip.PickupLng,
		&trip.DropoffLat,
		&trip.DropoffLng,
		&trip.Status,
		&confirmedProvider,
		&trip.BroadcastRound,
		&rejected,
		&trip.PaymentMode,
		&trip.PromoCode,
		&tipCents,
		&surgeBps,
		&estimated,
		&fareBase,
		&fareDistance,
		&fareTime,
		&fareSurge,
		&farePromo,
		&fareReferral,
		&fareMinAdj,
		&fareTax,
		&fareTip,
		&fareToll,
		&fareCancel,
		&fareTotal,
		&currency,
		&trip.DistanceMeters,
		&trip.DurationSeconds,
		&trip.IsTransferred,
		&trip.IsProviderEarningSet,
		&trip.RequestedAt,
		&acceptedAt,
		&arrivedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&trip.CancelReason,
	)
	if err != nil {
		return nil, err
	}

	trip.ConfirmedProviderID = confirmedProvider.String
	trip.RejectedProviderIDs = rejected
	trip.TipAmount = domain.Money(tipCents)
	trip.SurgeBps = surgeBps
	trip.EstimatedFare = domain.Money(estimated)

	if fareTotal.Valid {
		trip.Fare = &domain.FareBreakdown{
			Base:                  domain.Money(fareBase.Int64),
			DistanceCost:          domain.Money(fareDistance.Int64),
			TimeCost:              domain.Money(fareTime.Int64),
			SurgeFee:              domain.Money(fareSurge.Int64),
			PromoDiscount:         domain.Money(farePromo.Int64),
			ReferralCredit:        domain.Money(fareReferral.Int64),
			MinimumFareAdjustment: domain.Money(fareMinAdj.Int64),
			Tax:                   domain.Money(fareTax.Int64),
			Tip:                   domain.Money(fareTip.Int64),
			Toll:                  domain.Money(fareToll.Int64),
			CancellationFee:       domain.Money(fareCancel.Int64),
			Total:                 domain.Money(fareTotal.Int64),
			SurgeBps:              surgeBps,
			Currency:              currency.String,
		}
	}

	if acceptedAt.Valid {
		trip.AcceptedAt = acceptedAt.Time
	}
	if arrivedAt.Valid {
		trip.ArrivedAt = arrivedAt.Time
	}
	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

func statusTimestampColumn(status domain.TripStatus) (string, bool) {
	switch status {
	case domain.TripStatusAccepted:
		return "accepted_at", true
	case domain.TripStatusArrived:
		return "arrived_at", true
	case domain.TripStatusInProgress:
		return "started_at", true
	case domain.TripStatusCompleted:
		return "completed_at", true
	case domain.TripStatusCancelled:
		return "cancelled_at", true
	default:
		return "", false
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
