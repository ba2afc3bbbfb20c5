package service

import (
	"context"
	"sort"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// Locator finds the candidate providers for a broadcast round. It reads
// live positions from the geo index, filters by eligibility and the
// trip's exclusion set, and orders the result: when the pickup falls
// inside a queue-mode zone, queued zone providers come first in FIFO
// order, then everyone else by distance.
type Locator struct {
	locationStore redis.LocationStoreInterface
	zoneQueue     redis.ZoneQueueStoreInterface
	providerRepo  repository.ProviderRepository
	zoneRepo      repository.ZoneRepository
}

// NewLocator creates a new Locator.
func NewLocator(
	locationStore redis.LocationStoreInterface,
	zoneQueue redis.ZoneQueueStoreInterface,
	providerRepo repository.ProviderRepository,
	zoneRepo repository.ZoneRepository,
) *Locator {
	return &Locator{
		locationStore: locationStore,
		zoneQueue:     zoneQueue,
		providerRepo:  providerRepo,
		zoneRepo:      zoneRepo,
	}
}

// Candidate is a provider considered for an offer, with the ordering keys
// used to rank it.
type Candidate struct {
	Provider   *domain.Provider
	DistanceKm float64

	// QueuePosition is the zero-based FIFO rank in the pickup zone's
	// queue, or -1 when the provider is not queued there.
	QueuePosition int64
}

// FindCandidates returns up to limit providers for the next broadcast
// round, best first. An empty result is not an error; the round simply
// has no one to offer to.
func (l *Locator) FindCandidates(ctx context.Context, trip *domain.Trip, radiusKm float64, limit int) ([]Candidate, error) {
	locations, err := l.locationStore.FindNearbyProviders(ctx, trip.PickupLat, trip.PickupLng, radiusKm)
	if err != nil {
		return nil, err
	}

	if len(locations) == 0 {
		return nil, nil
	}

	ids := make([]string, len(locations))
	distances := make(map[string]float64, len(locations))
	for i, loc := range locations {
		ids[i] = loc.ProviderID
		distances[loc.ProviderID] = domain.HaversineKm(trip.PickupLat, trip.PickupLng, loc.Lat, loc.Lng)
	}

	providers, err := l.providerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	zone, err := l.pickupZone(ctx, trip)
	if err != nil {
		return nil, err
	}

	var queued, nearby []Candidate
	for _, p := range providers {
		if !p.Eligible(trip.ServiceType) || trip.HasRejected(p.ID) {
			continue
		}

		c := Candidate{
			Provider:      p,
			DistanceKm:    distances[p.ID],
			QueuePosition: -1,
		}

		if zone != nil {
			pos, err := l.zoneQueue.Position(ctx, zone.ID, p.ID)
			if err != nil {
				return nil, err
			}
			c.QueuePosition = pos
		}

		if c.QueuePosition >= 0 {
			queued = append(queued, c)
		} else {
			nearby = append(nearby, c)
		}
	}

	// Queued providers go strictly first, oldest in queue leading;
	// everyone else follows by proximity. Provider ID breaks exact ties
	// so the ordering is stable across runs.
	sort.Slice(queued, func(i, j int) bool {
		if queued[i].QueuePosition != queued[j].QueuePosition {
			return queued[i].QueuePosition < queued[j].QueuePosition
		}
		return queued[i].Provider.ID < queued[j].Provider.ID
	})
	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Provider.ID < nearby[j].Provider.ID
	})

	candidates := append(queued, nearby...)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// pickupZone returns the queue-mode zone containing the trip's pickup, or
// nil when there is none.
func (l *Locator) pickupZone(ctx context.Context, trip *domain.Trip) (*domain.Zone, error) {
	zones, err := l.zoneRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, z := range zones {
		if z.QueueMode && z.Contains(trip.PickupLat, trip.PickupLng) {
			return z, nil
		}
	}

	return nil, nil
}
