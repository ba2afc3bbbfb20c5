package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/bus"
	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// Broadcaster issues the time-boxed offers of a dispatch round and
// retires them when the round ends. A provider holds at most one pending
// offer across all trips; the Redis offer lock enforces that across
// concurrent dispatch loops.
type Broadcaster struct {
	offerRepo    repository.OfferRepository
	tripRepo     repository.TripRepository
	providerRepo repository.ProviderRepository
	lockStore    redis.LockStoreInterface
	notifier     notify.Notifier
	bus          bus.Bus

	offerTTL  time.Duration
	lockSlack time.Duration
}

// NewBroadcaster creates a new Broadcaster. offerTTL is the provider
// response window; lockSlack pads the offer lock past it so the lock
// outlives the offer it guards.
func NewBroadcaster(
	offerRepo repository.OfferRepository,
	tripRepo repository.TripRepository,
	providerRepo repository.ProviderRepository,
	lockStore redis.LockStoreInterface,
	notifier notify.Notifier,
	b bus.Bus,
	offerTTL time.Duration,
	lockSlack time.Duration,
) *Broadcaster {
	return &Broadcaster{
		offerRepo:    offerRepo,
		tripRepo:     tripRepo,
		providerRepo: providerRepo,
		lockStore:    lockStore,
		notifier:     notifier,
		bus:          b,
		offerTTL:     offerTTL,
		lockSlack:    lockSlack,
	}
}

// Broadcast creates one pending offer per candidate that is not already
// holding an offer elsewhere. Candidates whose lock cannot be acquired
// are skipped, not failed; they stay eligible for later rounds.
func (b *Broadcaster) Broadcast(ctx context.Context, trip *domain.Trip, candidates []Candidate, round int) ([]*domain.Offer, error) {
	now := time.Now()
	expiresAt := now.Add(b.offerTTL)

	var offers []*domain.Offer
	for _, c := range candidates {
		locked, err := b.lockStore.AcquireOfferLock(ctx, c.Provider.ID, b.offerTTL+b.lockSlack)
		if err != nil {
			return offers, err
		}
		if !locked {
			continue
		}

		offer := &domain.Offer{
			ID:         uuid.New().String(),
			TripID:     trip.ID,
			ProviderID: c.Provider.ID,
			Round:      round,
			Status:     domain.OfferStatusPending,
			ExpiresAt:  expiresAt,
			CreatedAt:  now,
		}

		if err := b.offerRepo.Create(ctx, offer); err != nil {
			_ = b.lockStore.ReleaseOfferLock(ctx, c.Provider.ID)
			return offers, err
		}

		offers = append(offers, offer)

		b.notifier.NotifyOffer(ctx, c.Provider.ID, notify.OfferSummary{
			TripID:        trip.ID,
			PickupLat:     trip.PickupLat,
			PickupLng:     trip.PickupLng,
			DropoffLat:    trip.DropoffLat,
			DropoffLng:    trip.DropoffLng,
			ServiceType:   trip.ServiceType,
			EstimatedFare: trip.EstimatedFare,
		}, expiresAt)

		if err := b.bus.Publish(ctx, bus.TopicOfferCreated, trip.ID, bus.OfferCreatedEvent{
			OfferID:    offer.ID,
			TripID:     trip.ID,
			ProviderID: c.Provider.ID,
			Round:      round,
			ExpiresAt:  expiresAt,
		}); err != nil {
			log.Printf("[broadcast] publish offer.created failed for offer %s: %v", offer.ID, err)
		}
	}

	if err := b.tripRepo.SetBroadcastRound(ctx, trip.ID, round); err != nil {
		return offers, err
	}

	return offers, nil
}

// ExpireRound retires every still-pending offer of a round: the offers
// move to expired, their providers join the trip's exclusion set and get
// their offer locks back. Returns the providers that timed out.
func (b *Broadcaster) ExpireRound(ctx context.Context, tripID string, round int) ([]string, error) {
	providerIDs, err := b.offerRepo.ExpireRound(ctx, tripID, round, time.Now())
	if err != nil {
		return nil, err
	}

	if len(providerIDs) == 0 {
		return nil, nil
	}

	for _, id := range providerIDs {
		if err := b.lockStore.ReleaseOfferLock(ctx, id); err != nil {
			log.Printf("[broadcast] release offer lock failed for provider %s: %v", id, err)
		}
		if err := b.providerRepo.IncrementCounter(ctx, id, domain.CounterRejected); err != nil {
			log.Printf("[broadcast] bump rejected count for %s: %v", id, err)
		}
	}

	if err := b.tripRepo.AddRejectedProviders(ctx, tripID, providerIDs); err != nil {
		return providerIDs, err
	}

	return providerIDs, nil
}
