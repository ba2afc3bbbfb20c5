package service

import (
	"context"
	"fmt"
	"testing"

	"dispatch/internal/domain"
)

func TestSurgeBpsTiers(t *testing.T) {
	tests := []struct {
		name   string
		supply int
		demand int
		want   int64
	}{
		{"idle market", 5, 0, 10000},
		{"balanced", 5, 5, 10000},
		{"low surge", 5, 6, 12500},
		{"medium surge", 2, 3, 15000},
		{"high surge", 1, 2, 20000},
		{"no supply no demand", 0, 0, 10000},
		{"no supply with demand", 0, 3, 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			locations := newMockLocationStore()
			trips := newMockTripRepo()

			for i := 0; i < tt.supply; i++ {
				id := fmt.Sprintf("p-%d", i)
				if err := locations.UpdateLocation(ctx, id, pickupLat, pickupLng); err != nil {
					t.Fatalf("locate: %v", err)
				}
			}
			for i := 0; i < tt.demand; i++ {
				if err := trips.Create(ctx, &domain.Trip{
					ID:        fmt.Sprintf("t-%d", i),
					Status:    domain.TripStatusRequested,
					PickupLat: pickupLat,
					PickupLng: pickupLng,
				}); err != nil {
					t.Fatalf("create trip: %v", err)
				}
			}

			surge := NewSurgeService(locations, trips)
			if got := surge.GetSurgeBps(ctx, pickupLat, pickupLng); got != tt.want {
				t.Errorf("GetSurgeBps = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSurgeIgnoresDistantAndTerminalTrips(t *testing.T) {
	ctx := context.Background()
	locations := newMockLocationStore()
	trips := newMockTripRepo()

	if err := locations.UpdateLocation(ctx, "p-1", pickupLat, pickupLng); err != nil {
		t.Fatalf("locate: %v", err)
	}

	// A completed trip and a trip far away contribute no demand.
	if err := trips.Create(ctx, &domain.Trip{
		ID:        "t-done",
		Status:    domain.TripStatusCompleted,
		PickupLat: pickupLat,
		PickupLng: pickupLng,
	}); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if err := trips.Create(ctx, &domain.Trip{
		ID:        "t-far",
		Status:    domain.TripStatusRequested,
		PickupLat: pickupLat + 1.0,
		PickupLng: pickupLng,
	}); err != nil {
		t.Fatalf("create trip: %v", err)
	}

	surge := NewSurgeService(locations, trips)
	if got := surge.GetSurgeBps(ctx, pickupLat, pickupLng); got != 10000 {
		t.Errorf("GetSurgeBps = %d, want 10000", got)
	}
}
