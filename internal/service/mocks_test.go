package service

import (
	"context"
	"sync"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// In-memory fakes with the same conditional-update semantics as the
// postgres implementations, so the race and idempotence paths can be
// exercised without a database.

type mockTripRepo struct {
	mu    sync.Mutex
	trips map[string]*domain.Trip
}

func newMockTripRepo() *mockTripRepo {
	return &mockTripRepo{trips: make(map[string]*domain.Trip)}
}

func copyTrip(t *domain.Trip) *domain.Trip {
	c := *t
	c.RejectedProviderIDs = append([]string(nil), t.RejectedProviderIDs...)
	if t.Fare != nil {
		f := *t.Fare
		c.Fare = &f
	}
	return &c
}

func (m *mockTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = copyTrip(trip)
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrip(t), nil
}

func (m *mockTripRepo) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		out = append(out, copyTrip(t))
	}
	return out, nil
}

func (m *mockTripRepo) ListActive(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Trip
	for _, t := range m.trips {
		if !t.IsTerminal() {
			out = append(out, copyTrip(t))
		}
	}
	return out, nil
}

func (m *mockTripRepo) ConfirmProvider(ctx context.Context, tripID, providerID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.Status != domain.TripStatusRequested || t.ConfirmedProviderID != "" {
		return false, nil
	}
	t.Status = domain.TripStatusAccepted
	t.ConfirmedProviderID = providerID
	t.AcceptedAt = at
	return true, nil
}

func (m *mockTripRepo) Transition(ctx context.Context, tripID string, from, to domain.TripStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	switch to {
	case domain.TripStatusArrived:
		t.ArrivedAt = at
	case domain.TripStatusInProgress:
		t.StartedAt = at
	case domain.TripStatusCompleted:
		t.CompletedAt = at
	}
	return true, nil
}

func (m *mockTripRepo) Cancel(ctx context.Context, tripID, reason string, at time.Time, allowed ...domain.TripStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	permitted := false
	for _, s := range allowed {
		if t.Status == s {
			permitted = true
			break
		}
	}
	if !permitted {
		return false, nil
	}
	t.Status = domain.TripStatusCancelled
	t.CancelReason = reason
	t.CancelledAt = at
	return true, nil
}

func (m *mockTripRepo) AddRejectedProviders(ctx context.Context, tripID string, providerIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range providerIDs {
		dup := false
		for _, existing := range t.RejectedProviderIDs {
			if existing == id {
				dup = true
				break
			}
		}
		if !dup {
			t.RejectedProviderIDs = append(t.RejectedProviderIDs, id)
		}
	}
	return nil
}

func (m *mockTripRepo) SetBroadcastRound(ctx context.Context, tripID string, round int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	t.BroadcastRound = round
	return nil
}

func (m *mockTripRepo) SaveFare(ctx context.Context, tripID string, fare *domain.FareBreakdown, distanceMeters, durationSeconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	f := *fare
	t.Fare = &f
	t.DistanceMeters = distanceMeters
	t.DurationSeconds = durationSeconds
	return nil
}

func (m *mockTripRepo) MarkTransferred(ctx context.Context, tripID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.IsTransferred {
		return false, nil
	}
	t.IsTransferred = true
	t.IsProviderEarningSet = true
	return true, nil
}

type mockProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*domain.Provider
}

func newMockProviderRepo() *mockProviderRepo {
	return &mockProviderRepo{providers: make(map[string]*domain.Provider)}
}

func (m *mockProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.providers[p.ID] = &c
	return nil
}

func (m *mockProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *mockProviderRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Provider
	for _, id := range ids {
		if p, ok := m.providers[id]; ok {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockProviderRepo) GetAll(ctx context.Context) ([]*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Provider
	for _, p := range m.providers {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockProviderRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsAvailable = available
	return nil
}

func (m *mockProviderRepo) UpdateLocation(ctx context.Context, id string, lat, lng, heading float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Lat, p.Lng, p.Heading = lat, lng, heading
	return nil
}

func (m *mockProviderRepo) IncrementCounter(ctx context.Context, id string, counter domain.ProviderCounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch counter {
	case domain.CounterAccepted:
		p.AcceptedCount++
	case domain.CounterCompleted:
		p.CompletedCount++
	case domain.CounterCancelled:
		p.CancelledCount++
	case domain.CounterRejected:
		p.RejectedCount++
	}
	return nil
}

type mockOfferRepo struct {
	mu     sync.Mutex
	offers map[string]*domain.Offer
}

func newMockOfferRepo() *mockOfferRepo {
	return &mockOfferRepo{offers: make(map[string]*domain.Offer)}
}

func (m *mockOfferRepo) Create(ctx context.Context, o *domain.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *o
	m.offers[o.ID] = &c
	return nil
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (m *mockOfferRepo) GetPendingByProvider(ctx context.Context, providerID string) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.offers {
		if o.ProviderID == providerID && o.Status == domain.OfferStatusPending {
			c := *o
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockOfferRepo) ListByTrip(ctx context.Context, tripID string) ([]*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Offer
	for _, o := range m.offers {
		if o.TripID == tripID {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockOfferRepo) transition(id string, to domain.OfferStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if o.Status != domain.OfferStatusPending {
		return false, nil
	}
	o.Status = to
	o.RespondedAt = at
	return true, nil
}

func (m *mockOfferRepo) Accept(ctx context.Context, id string, at time.Time) (bool, error) {
	return m.transition(id, domain.OfferStatusAccepted, at)
}

func (m *mockOfferRepo) Reject(ctx context.Context, id string, at time.Time) (bool, error) {
	return m.transition(id, domain.OfferStatusRejected, at)
}

func (m *mockOfferRepo) Expire(ctx context.Context, id string, at time.Time) (bool, error) {
	return m.transition(id, domain.OfferStatusExpired, at)
}

func (m *mockOfferRepo) ExpireRound(ctx context.Context, tripID string, round int, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var providerIDs []string
	for _, o := range m.offers {
		if o.TripID == tripID && o.Round == round && o.Status == domain.OfferStatusPending {
			o.Status = domain.OfferStatusExpired
			o.RespondedAt = at
			providerIDs = append(providerIDs, o.ProviderID)
		}
	}
	return providerIDs, nil
}

type mockPromoRepo struct {
	mu     sync.Mutex
	promos map[string]*domain.PromoCode
}

func newMockPromoRepo() *mockPromoRepo {
	return &mockPromoRepo{promos: make(map[string]*domain.PromoCode)}
}

func (m *mockPromoRepo) Create(ctx context.Context, p *domain.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.promos[p.Code] = &c
	return nil
}

func (m *mockPromoRepo) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *mockPromoRepo) ConsumeUse(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[code]
	if !ok {
		return false, repository.ErrNotFound
	}
	if p.UsesConsumed >= p.UsesCap {
		return false, nil
	}
	p.UsesConsumed++
	return true, nil
}

type mockWalletRepo struct {
	mu      sync.Mutex
	entries []*domain.WalletLedgerEntry
}

func newMockWalletRepo() *mockWalletRepo {
	return &mockWalletRepo{}
}

func (m *mockWalletRepo) CreateEntry(ctx context.Context, entry *domain.WalletLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.TripID == entry.TripID && e.AccountID == entry.AccountID {
			return repository.ErrDuplicateLedgerEntry
		}
	}
	c := *entry
	m.entries = append(m.entries, &c)
	return nil
}

func (m *mockWalletRepo) Balance(ctx context.Context, accountID string) (domain.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum domain.Money
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (m *mockWalletRepo) ListByAccount(ctx context.Context, accountID string) ([]*domain.WalletLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.WalletLedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockWalletRepo) ListByTrip(ctx context.Context, tripID string) ([]*domain.WalletLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.WalletLedgerEntry
	for _, e := range m.entries {
		if e.TripID == tripID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

type mockPricingRepo struct {
	configs map[string]*domain.PricingConfig
}

func newMockPricingRepo(configs ...*domain.PricingConfig) *mockPricingRepo {
	m := &mockPricingRepo{configs: make(map[string]*domain.PricingConfig)}
	for _, c := range configs {
		m.configs[c.ServiceType] = c
	}
	return m
}

func (m *mockPricingRepo) GetByServiceType(ctx context.Context, serviceType string) (*domain.PricingConfig, error) {
	c, ok := m.configs[serviceType]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type mockZoneRepo struct {
	mu    sync.Mutex
	zones map[string]*domain.Zone
}

func newMockZoneRepo() *mockZoneRepo {
	return &mockZoneRepo{zones: make(map[string]*domain.Zone)}
}

func (m *mockZoneRepo) Create(ctx context.Context, z *domain.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *z
	m.zones[z.ID] = &c
	return nil
}

func (m *mockZoneRepo) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *z
	return &c, nil
}

func (m *mockZoneRepo) GetAll(ctx context.Context) ([]*domain.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Zone
	for _, z := range m.zones {
		c := *z
		out = append(out, &c)
	}
	return out, nil
}

type mockRiderRepo struct {
	mu     sync.Mutex
	riders map[string]*domain.Rider
}

func newMockRiderRepo() *mockRiderRepo {
	return &mockRiderRepo{riders: make(map[string]*domain.Rider)}
}

func (m *mockRiderRepo) Create(ctx context.Context, r *domain.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	m.riders[r.ID] = &c
	return nil
}

func (m *mockRiderRepo) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (m *mockRiderRepo) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Rider
	for _, r := range m.riders {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockRiderRepo) DebitReferralBalance(ctx context.Context, id string, amount domain.Money) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if r.ReferralBalance < amount {
		return false, nil
	}
	r.ReferralBalance -= amount
	return true, nil
}

func (m *mockRiderRepo) CreditReferralBalance(ctx context.Context, id string, amount domain.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.ReferralBalance += amount
	return nil
}

type mockLocationStore struct {
	mu        sync.Mutex
	locations map[string]redis.ProviderLocation
}

func newMockLocationStore() *mockLocationStore {
	return &mockLocationStore{locations: make(map[string]redis.ProviderLocation)}
}

func (m *mockLocationStore) UpdateLocation(ctx context.Context, providerID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[providerID] = redis.ProviderLocation{ProviderID: providerID, Lat: lat, Lng: lng}
	return nil
}

func (m *mockLocationStore) FindNearbyProviders(ctx context.Context, lat, lng, radiusKm float64) ([]redis.ProviderLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []redis.ProviderLocation
	for _, loc := range m.locations {
		if domain.HaversineKm(lat, lng, loc.Lat, loc.Lng) <= radiusKm {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (m *mockLocationStore) RemoveLocation(ctx context.Context, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, providerID)
	return nil
}

type mockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
}

func newMockLockStore() *mockLockStore {
	return &mockLockStore{locks: make(map[string]bool)}
}

func (m *mockLockStore) AcquireOfferLock(ctx context.Context, providerID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[providerID] {
		return false, nil
	}
	m.locks[providerID] = true
	return true, nil
}

func (m *mockLockStore) ReleaseOfferLock(ctx context.Context, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, providerID)
	return nil
}

type mockZoneQueue struct {
	mu     sync.Mutex
	queues map[string][]string
}

func newMockZoneQueue() *mockZoneQueue {
	return &mockZoneQueue{queues: make(map[string][]string)}
}

func (m *mockZoneQueue) Enqueue(ctx context.Context, zoneID, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.queues[zoneID] {
		if id == providerID {
			return nil
		}
	}
	m.queues[zoneID] = append(m.queues[zoneID], providerID)
	return nil
}

func (m *mockZoneQueue) Remove(ctx context.Context, zoneID, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queues[zoneID]
	for i, id := range q {
		if id == providerID {
			m.queues[zoneID] = append(q[:i], q[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockZoneQueue) Position(ctx context.Context, zoneID, providerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range m.queues[zoneID] {
		if id == providerID {
			return int64(i), nil
		}
	}
	return -1, nil
}

// stubRouter returns fixed distance and duration.
type stubRouter struct {
	meters  int64
	seconds int64
}

func (r *stubRouter) DistanceAndDuration(ctx context.Context, originLat, originLng, destLat, destLng float64) (int64, int64, error) {
	return r.meters, r.seconds, nil
}

var (
	_ repository.TripRepository       = (*mockTripRepo)(nil)
	_ repository.ProviderRepository   = (*mockProviderRepo)(nil)
	_ repository.OfferRepository      = (*mockOfferRepo)(nil)
	_ repository.PromoRepository      = (*mockPromoRepo)(nil)
	_ repository.WalletRepository     = (*mockWalletRepo)(nil)
	_ repository.PricingRepository    = (*mockPricingRepo)(nil)
	_ repository.ZoneRepository       = (*mockZoneRepo)(nil)
	_ repository.RiderRepository      = (*mockRiderRepo)(nil)
	_ redis.LocationStoreInterface    = (*mockLocationStore)(nil)
	_ redis.LockStoreInterface        = (*mockLockStore)(nil)
	_ redis.ZoneQueueStoreInterface   = (*mockZoneQueue)(nil)
)
