package service

import (
	"context"
	"testing"

	"dispatch/internal/domain"
)

const (
	pickupLat = 37.7749
	pickupLng = -122.4194
)

func testTrip() *domain.Trip {
	return &domain.Trip{
		ID:          "trip-1",
		RiderID:     "rider-1",
		ServiceType: domain.ServiceTypeEconomy,
		Status:      domain.TripStatusRequested,
		PickupLat:   pickupLat,
		PickupLng:   pickupLng,
		DropoffLat:  pickupLat + 0.05,
		DropoffLng:  pickupLng,
	}
}

func addProvider(t *testing.T, providers *mockProviderRepo, locations *mockLocationStore, id string, latOffset float64, mutate func(*domain.Provider)) {
	t.Helper()

	p := &domain.Provider{
		ID:          id,
		Name:        id,
		ServiceType: domain.ServiceTypeEconomy,
		IsActive:    true,
		IsAvailable: true,
	}
	if mutate != nil {
		mutate(p)
	}

	if err := providers.Create(context.Background(), p); err != nil {
		t.Fatalf("create provider %s: %v", id, err)
	}
	if err := locations.UpdateLocation(context.Background(), id, pickupLat+latOffset, pickupLng); err != nil {
		t.Fatalf("locate provider %s: %v", id, err)
	}
}

func candidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Provider.ID
	}
	return ids
}

func TestFindCandidatesFiltersIneligible(t *testing.T) {
	providers := newMockProviderRepo()
	locations := newMockLocationStore()

	addProvider(t, providers, locations, "p-ok", 0.005, nil)
	addProvider(t, providers, locations, "p-offduty", 0.005, func(p *domain.Provider) { p.IsAvailable = false })
	addProvider(t, providers, locations, "p-inactive", 0.005, func(p *domain.Provider) { p.IsActive = false })
	addProvider(t, providers, locations, "p-premium", 0.005, func(p *domain.Provider) { p.ServiceType = domain.ServiceTypePremium })
	addProvider(t, providers, locations, "p-rejected", 0.005, nil)

	trip := testTrip()
	trip.RejectedProviderIDs = []string{"p-rejected"}

	locator := NewLocator(locations, newMockZoneQueue(), providers, newMockZoneRepo())

	candidates, err := locator.FindCandidates(context.Background(), trip, 5.0, 0)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	if len(candidates) != 1 || candidates[0].Provider.ID != "p-ok" {
		t.Errorf("candidates = %v, want [p-ok]", candidateIDs(candidates))
	}
}

func TestFindCandidatesOrdersByDistance(t *testing.T) {
	providers := newMockProviderRepo()
	locations := newMockLocationStore()

	addProvider(t, providers, locations, "p-far", 0.03, nil)
	addProvider(t, providers, locations, "p-near", 0.005, nil)
	addProvider(t, providers, locations, "p-mid", 0.015, nil)

	locator := NewLocator(locations, newMockZoneQueue(), providers, newMockZoneRepo())

	candidates, err := locator.FindCandidates(context.Background(), testTrip(), 5.0, 0)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	got := candidateIDs(candidates)
	want := []string{"p-near", "p-mid", "p-far"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
}

func TestFindCandidatesQueueZonePriority(t *testing.T) {
	providers := newMockProviderRepo()
	locations := newMockLocationStore()
	zones := newMockZoneRepo()
	queue := newMockZoneQueue()

	if err := zones.Create(context.Background(), &domain.Zone{
		ID:        "zone-airport",
		Name:      "airport",
		CenterLat: pickupLat,
		CenterLng: pickupLng,
		RadiusKm:  3.0,
		QueueMode: true,
	}); err != nil {
		t.Fatalf("create zone: %v", err)
	}

	// Queued providers sit farther from the pickup than the walk-up one
	// but must still lead, in enqueue order.
	addProvider(t, providers, locations, "p-q2", 0.02, nil)
	addProvider(t, providers, locations, "p-q1", 0.018, nil)
	addProvider(t, providers, locations, "p-walkup", 0.002, nil)

	if err := queue.Enqueue(context.Background(), "zone-airport", "p-q2"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := queue.Enqueue(context.Background(), "zone-airport", "p-q1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	locator := NewLocator(locations, queue, providers, zones)

	candidates, err := locator.FindCandidates(context.Background(), testTrip(), 5.0, 0)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	got := candidateIDs(candidates)
	want := []string{"p-q2", "p-q1", "p-walkup"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}

	if candidates[0].QueuePosition != 0 || candidates[1].QueuePosition != 1 {
		t.Errorf("queue positions = %d, %d, want 0, 1", candidates[0].QueuePosition, candidates[1].QueuePosition)
	}
	if candidates[2].QueuePosition != -1 {
		t.Errorf("walk-up queue position = %d, want -1", candidates[2].QueuePosition)
	}
}

func TestFindCandidatesLimit(t *testing.T) {
	providers := newMockProviderRepo()
	locations := newMockLocationStore()

	addProvider(t, providers, locations, "p-a", 0.002, nil)
	addProvider(t, providers, locations, "p-b", 0.004, nil)
	addProvider(t, providers, locations, "p-c", 0.006, nil)

	locator := NewLocator(locations, newMockZoneQueue(), providers, newMockZoneRepo())

	candidates, err := locator.FindCandidates(context.Background(), testTrip(), 5.0, 2)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(candidates))
	}
	if candidates[0].Provider.ID != "p-a" || candidates[1].Provider.ID != "p-b" {
		t.Errorf("candidates = %v, want the two nearest", candidateIDs(candidates))
	}
}

func TestFindCandidatesEmpty(t *testing.T) {
	locator := NewLocator(newMockLocationStore(), newMockZoneQueue(), newMockProviderRepo(), newMockZoneRepo())

	candidates, err := locator.FindCandidates(context.Background(), testTrip(), 5.0, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %v, want none", candidateIDs(candidates))
	}
}

func TestFindCandidatesOutOfRadius(t *testing.T) {
	providers := newMockProviderRepo()
	locations := newMockLocationStore()

	// Roughly 11 km north of the pickup.
	addProvider(t, providers, locations, "p-distant", 0.1, nil)

	locator := NewLocator(locations, newMockZoneQueue(), providers, newMockZoneRepo())

	candidates, err := locator.FindCandidates(context.Background(), testTrip(), 5.0, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates = %v, want none beyond the radius", candidateIDs(candidates))
	}
}
