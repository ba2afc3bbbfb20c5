// Package routing abstracts the external routing provider used for trip
// distance and duration estimates.
package routing

import "context"

// Router resolves road distance and travel time between two points. It is
// consulted for the initial fare estimate and again at settlement with the
// final trip geometry.
type Router interface {
	// DistanceAndDuration returns meters and seconds between origin and
	// destination.
	DistanceAndDuration(ctx context.Context, originLat, originLng, destLat, destLng float64) (meters int64, seconds int64, err error)
}
