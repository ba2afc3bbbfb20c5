package routing

import (
	"context"
	"errors"

	"dispatch/internal/domain"
)

// Estimator is a Router that derives distance from great-circle geometry
// and duration from a configured average speed. It is the default when no
// external routing provider is configured.
type Estimator struct {
	// AvgSpeedKmh is the assumed door-to-door speed.
	AvgSpeedKmh float64

	// RoadFactor inflates the great-circle distance to approximate road
	// distance. 1.3 is a common urban value.
	RoadFactor float64
}

// NewEstimator creates an Estimator with the given average speed.
func NewEstimator(avgSpeedKmh float64) *Estimator {
	return &Estimator{AvgSpeedKmh: avgSpeedKmh, RoadFactor: 1.3}
}

// DistanceAndDuration returns meters and seconds between origin and
// destination.
func (e *Estimator) DistanceAndDuration(ctx context.Context, originLat, originLng, destLat, destLng float64) (int64, int64, error) {
	if !domain.ValidLatitude(originLat) || !domain.ValidLongitude(originLng) ||
		!domain.ValidLatitude(destLat) || !domain.ValidLongitude(destLng) {
		return 0, 0, errors.New("invalid coordinates")
	}

	km := domain.HaversineKm(originLat, originLng, destLat, destLng) * e.RoadFactor

	speed := e.AvgSpeedKmh
	if speed <= 0 {
		speed = 30
	}

	meters := int64(km * 1000)
	seconds := int64(km / speed * 3600)

	return meters, seconds, nil
}

var _ Router = (*Estimator)(nil)
