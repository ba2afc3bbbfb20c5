package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"dispatch/internal/bus"
	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// Arbiter decides offer responses. Acceptance is an atomic race: the
// first provider whose conditional trip update lands becomes the
// confirmed provider, every later acceptance gets ErrRaceLost. The trip
// row is the single source of truth; offer statuses follow it.
type Arbiter struct {
	tripRepo     repository.TripRepository
	offerRepo    repository.OfferRepository
	providerRepo repository.ProviderRepository
	lockStore    redis.LockStoreInterface
	zoneQueue    redis.ZoneQueueStoreInterface
	zoneRepo     repository.ZoneRepository
	bus          bus.Bus
	trips        *TripService
}

// NewArbiter creates a new Arbiter wired to the trip service's dispatch
// waiters.
func NewArbiter(
	tripRepo repository.TripRepository,
	offerRepo repository.OfferRepository,
	providerRepo repository.ProviderRepository,
	lockStore redis.LockStoreInterface,
	zoneQueue redis.ZoneQueueStoreInterface,
	zoneRepo repository.ZoneRepository,
	b bus.Bus,
	trips *TripService,
) *Arbiter {
	return &Arbiter{
		tripRepo:     tripRepo,
		offerRepo:    offerRepo,
		providerRepo: providerRepo,
		lockStore:    lockStore,
		zoneQueue:    zoneQueue,
		zoneRepo:     zoneRepo,
		bus:          b,
		trips:        trips,
	}
}

// Accept processes a provider's acceptance of an offer. Exactly one
// acceptance per trip ever succeeds.
func (a *Arbiter) Accept(ctx context.Context, offerID, providerID string) (*domain.Trip, error) {
	if offerID == "" {
		return nil, ErrInvalidOfferID
	}
	if providerID == "" {
		return nil, ErrInvalidProviderID
	}

	offer, err := a.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	if offer.ProviderID != providerID {
		return nil, ErrInvalidProviderID
	}

	now := time.Now()

	switch offer.Status {
	case domain.OfferStatusPending:
	case domain.OfferStatusExpired:
		return nil, ErrOfferExpired
	default:
		return nil, ErrOfferNotPending
	}

	if offer.Expired(now) {
		_, _ = a.offerRepo.Expire(ctx, offerID, now)
		return nil, ErrOfferExpired
	}

	// The conditional update on the trip row is the arbiter: it only
	// lands while the trip is still requested with no confirmed
	// provider.
	won, err := a.tripRepo.ConfirmProvider(ctx, offer.TripID, providerID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		if _, err := a.offerRepo.Expire(ctx, offerID, now); err != nil {
			log.Printf("[arbiter] expire losing offer %s: %v", offerID, err)
		}
		_ = a.lockStore.ReleaseOfferLock(ctx, providerID)
		return nil, ErrRaceLost
	}

	if ok, err := a.offerRepo.Accept(ctx, offerID, now); err != nil {
		log.Printf("[arbiter] accept offer %s: %v", offerID, err)
	} else if !ok {
		// The round expiry raced us by a hair; the trip win stands.
		log.Printf("[arbiter] offer %s expired concurrently with acceptance", offerID)
	}

	_ = a.lockStore.ReleaseOfferLock(ctx, providerID)

	// The winner leaves the open market: off duty for new offers and out
	// of any zone queue.
	if err := a.providerRepo.SetAvailability(ctx, providerID, false); err != nil {
		log.Printf("[arbiter] set winner %s unavailable: %v", providerID, err)
	}
	if err := a.providerRepo.IncrementCounter(ctx, providerID, domain.CounterAccepted); err != nil {
		log.Printf("[arbiter] bump accepted count for %s: %v", providerID, err)
	}
	a.dequeueEverywhere(ctx, providerID)

	a.trips.waiters.notifyAccept(offer.TripID, providerID)

	trip, err := a.tripRepo.GetByID(ctx, offer.TripID)
	if err != nil {
		return nil, err
	}

	if err := a.bus.Publish(ctx, bus.TopicOfferAccepted, trip.ID, bus.OfferAcceptedEvent{
		OfferID:    offerID,
		TripID:     trip.ID,
		ProviderID: providerID,
	}); err != nil {
		log.Printf("[arbiter] publish offer.accepted for %s: %v", offerID, err)
	}
	a.trips.publishStatus(ctx, trip)

	return trip, nil
}

// Reject processes a provider's explicit rejection. The provider joins
// the trip's exclusion set and is never re-offered this trip.
func (a *Arbiter) Reject(ctx context.Context, offerID, providerID string) error {
	if offerID == "" {
		return ErrInvalidOfferID
	}
	if providerID == "" {
		return ErrInvalidProviderID
	}

	offer, err := a.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return err
	}

	if offer.ProviderID != providerID {
		return ErrInvalidProviderID
	}

	ok, err := a.offerRepo.Reject(ctx, offerID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferNotPending
	}

	_ = a.lockStore.ReleaseOfferLock(ctx, providerID)

	if err := a.tripRepo.AddRejectedProviders(ctx, offer.TripID, []string{providerID}); err != nil {
		return err
	}

	if err := a.providerRepo.IncrementCounter(ctx, providerID, domain.CounterRejected); err != nil {
		log.Printf("[arbiter] bump rejected count for %s: %v", providerID, err)
	}

	return nil
}

// SubscribeResponses consumes provider responses arriving over the bus,
// for driver apps that answer offers asynchronously instead of over HTTP.
func (a *Arbiter) SubscribeResponses(ctx context.Context, b bus.Bus) {
	b.Subscribe(ctx, bus.TopicOfferResponse, "dispatch-arbiter", func(data []byte) error {
		var ev bus.OfferResponseEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}

		switch ev.Action {
		case "accept":
			if _, err := a.Accept(ctx, ev.OfferID, ev.ProviderID); err != nil {
				log.Printf("[arbiter] bus accept offer %s: %v", ev.OfferID, err)
			}
		case "reject":
			if err := a.Reject(ctx, ev.OfferID, ev.ProviderID); err != nil {
				log.Printf("[arbiter] bus reject offer %s: %v", ev.OfferID, err)
			}
		default:
			log.Printf("[arbiter] unknown offer response action %q", ev.Action)
		}

		return nil
	})
}

// dequeueEverywhere removes a provider from every queue-mode zone queue.
func (a *Arbiter) dequeueEverywhere(ctx context.Context, providerID string) {
	zones, err := a.zoneRepo.GetAll(ctx)
	if err != nil {
		log.Printf("[arbiter] list zones: %v", err)
		return
	}

	for _, z := range zones {
		if !z.QueueMode {
			continue
		}
		if err := a.zoneQueue.Remove(ctx, z.ID, providerID); err != nil {
			log.Printf("[arbiter] dequeue provider %s from zone %s: %v", providerID, z.ID, err)
		}
	}
}
