package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Google is a Router backed by the Google Maps Directions API.
type Google struct {
	client *maps.Client
}

// NewGoogle creates a Google router with the given API key.
func NewGoogle(apiKey string) (*Google, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Google{client: client}, nil
}

// DistanceAndDuration returns meters and seconds between origin and
// destination, assuming driving mode.
func (g *Google) DistanceAndDuration(ctx context.Context, originLat, originLng, destLat, destLng float64) (int64, int64, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", originLat, originLng),
		Destination: fmt.Sprintf("%f,%f", destLat, destLng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return int64(leg.Distance.Meters), int64(leg.Duration.Seconds()), nil
}

var _ Router = (*Google)(nil)
