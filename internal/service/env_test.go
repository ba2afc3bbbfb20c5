package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/bus"
	"dispatch/internal/domain"
	"dispatch/internal/notify"
)

// testEnv wires the full service graph over the in-memory fakes with a
// dispatch loop fast enough to exercise end to end.
type testEnv struct {
	trips     *mockTripRepo
	riders    *mockRiderRepo
	providers *mockProviderRepo
	offers    *mockOfferRepo
	promos    *mockPromoRepo
	wallets   *mockWalletRepo
	pricing   *mockPricingRepo
	zones     *mockZoneRepo
	locations *mockLocationStore
	locks     *mockLockStore
	queue     *mockZoneQueue
	gateway   *MockGateway
	bus       *bus.Memory

	locator     *Locator
	broadcaster *Broadcaster
	settlement  *SettlementService
	tripSvc     *TripService
	arbiter     *Arbiter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		trips:     newMockTripRepo(),
		riders:    newMockRiderRepo(),
		providers: newMockProviderRepo(),
		offers:    newMockOfferRepo(),
		promos:    newMockPromoRepo(),
		wallets:   newMockWalletRepo(),
		pricing:   newMockPricingRepo(testPricing()),
		zones:     newMockZoneRepo(),
		locations: newMockLocationStore(),
		locks:     newMockLockStore(),
		queue:     newMockZoneQueue(),
		gateway:   NewMockGateway(),
		bus:       bus.NewMemory(),
	}

	notifier := notify.NewLogNotifier()
	calc := NewFareCalculator()
	surge := NewSurgeService(env.locations, env.trips)

	cfg := DispatchConfig{
		ProviderTimeout:    100 * time.Millisecond,
		ProvidersPerRound:  5,
		MaxBroadcastRounds: 2,
		SearchRadiusKm:     5.0,
	}

	env.locator = NewLocator(env.locations, env.queue, env.providers, env.zones)
	env.broadcaster = NewBroadcaster(env.offers, env.trips, env.providers, env.locks,
		notifier, env.bus, cfg.ProviderTimeout, 50*time.Millisecond)
	env.settlement = NewSettlementService(env.trips, env.riders, env.promos, env.pricing,
		env.wallets, env.gateway, calc)
	env.tripSvc = NewTripService(env.trips, env.riders, env.providers, env.offers,
		env.pricing, env.promos, env.wallets,
		env.locator, env.broadcaster, surge, calc, &stubRouter{meters: 10000, seconds: 360},
		env.settlement, notifier, env.bus, cfg)
	env.arbiter = NewArbiter(env.trips, env.offers, env.providers, env.locks, env.queue,
		env.zones, env.bus, env.tripSvc)

	return env
}

func (e *testEnv) seedRider(t *testing.T, id string, referralBalance domain.Money) {
	t.Helper()
	if err := e.riders.Create(context.Background(), &domain.Rider{
		ID:              id,
		Name:            id,
		ReferralBalance: referralBalance,
		CreatedAt:       time.Now(),
	}); err != nil {
		t.Fatalf("seed rider %s: %v", id, err)
	}
}

func (e *testEnv) seedProvider(t *testing.T, id string, latOffset float64) {
	t.Helper()
	if err := e.providers.Create(context.Background(), &domain.Provider{
		ID:          id,
		Name:        id,
		ServiceType: domain.ServiceTypeEconomy,
		IsActive:    true,
		IsAvailable: true,
	}); err != nil {
		t.Fatalf("seed provider %s: %v", id, err)
	}
	if err := e.locations.UpdateLocation(context.Background(), id, pickupLat+latOffset, pickupLng); err != nil {
		t.Fatalf("locate provider %s: %v", id, err)
	}
}

// seedTrip plants a trip directly in the repository in a given state,
// bypassing the dispatch loop.
func (e *testEnv) seedTrip(t *testing.T, mutate func(*domain.Trip)) *domain.Trip {
	t.Helper()

	trip := testTrip()
	trip.ID = uuid.New().String()
	trip.PaymentMode = domain.PaymentModeCash
	trip.SurgeBps = 10000
	trip.RequestedAt = time.Now()
	if mutate != nil {
		mutate(trip)
	}

	if err := e.trips.Create(context.Background(), trip); err != nil {
		t.Fatalf("seed trip: %v", err)
	}
	return trip
}

// seedOffer plants a pending offer for a provider.
func (e *testEnv) seedOffer(t *testing.T, tripID, providerID string, round int) *domain.Offer {
	t.Helper()

	offer := &domain.Offer{
		ID:         uuid.New().String(),
		TripID:     tripID,
		ProviderID: providerID,
		Round:      round,
		Status:     domain.OfferStatusPending,
		ExpiresAt:  time.Now().Add(time.Minute),
		CreatedAt:  time.Now(),
	}
	if err := e.offers.Create(context.Background(), offer); err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	return offer
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
