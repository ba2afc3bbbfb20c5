package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/bus"
	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ProviderService handles provider accounts, duty status and live
// locations. Location reports feed the geo index the Locator searches and
// keep zone queue membership current.
type ProviderService struct {
	providerRepo  repository.ProviderRepository
	offerRepo     repository.OfferRepository
	zoneRepo      repository.ZoneRepository
	locationStore redis.LocationStoreInterface
	zoneQueue     redis.ZoneQueueStoreInterface
	bus           bus.Bus
}

// NewProviderService creates a new ProviderService.
func NewProviderService(
	providerRepo repository.ProviderRepository,
	offerRepo repository.OfferRepository,
	zoneRepo repository.ZoneRepository,
	locationStore redis.LocationStoreInterface,
	zoneQueue redis.ZoneQueueStoreInterface,
	b bus.Bus,
) *ProviderService {
	return &ProviderService{
		providerRepo:  providerRepo,
		offerRepo:     offerRepo,
		zoneRepo:      zoneRepo,
		locationStore: locationStore,
		zoneQueue:     zoneQueue,
		bus:           b,
	}
}

// RegisterProviderRequest contains the parameters for registering a
// provider.
type RegisterProviderRequest struct {
	Name        string
	Phone       string
	ServiceType string
}

// RegisterProvider creates a provider account. New providers start active
// but off duty; they appear to dispatch only after going available and
// reporting a location.
func (s *ProviderService) RegisterProvider(ctx context.Context, req RegisterProviderRequest) (*domain.Provider, error) {
	if req.ServiceType != domain.ServiceTypeEconomy && req.ServiceType != domain.ServiceTypePremium {
		return nil, ErrInvalidServiceType
	}

	provider := &domain.Provider{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Phone:       req.Phone,
		ServiceType: req.ServiceType,
		IsActive:    true,
		IsAvailable: false,
	}

	if err := s.providerRepo.Create(ctx, provider); err != nil {
		return nil, err
	}

	return provider, nil
}

// SetAvailability flips the provider's duty flag. Going off duty removes
// the provider from the geo index and every zone queue, so no further
// offers can reach them.
func (s *ProviderService) SetAvailability(ctx context.Context, providerID string, available bool) (*domain.Provider, error) {
	if providerID == "" {
		return nil, ErrInvalidProviderID
	}

	provider, err := s.providerRepo.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if err := s.providerRepo.SetAvailability(ctx, providerID, available); err != nil {
		return nil, err
	}
	provider.IsAvailable = available

	if !available {
		if err := s.locationStore.RemoveLocation(ctx, providerID); err != nil {
			log.Printf("[provider] remove location for %s: %v", providerID, err)
		}
		s.dequeueAll(ctx, providerID)
	}

	return provider, nil
}

// UpdateLocationRequest contains a provider position report.
type UpdateLocationRequest struct {
	ProviderID string
	Lat        float64
	Lng        float64
	Heading    float64

	// TripID is set while the provider is driving a trip, so riders
	// following that trip see the movement.
	TripID string
}

// UpdateLocation records a position report: the database row, the geo
// index, zone queue membership, and a location event for live tracking.
func (s *ProviderService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.ProviderID == "" {
		return ErrInvalidProviderID
	}
	if !domain.ValidLatitude(req.Lat) || !domain.ValidLongitude(req.Lng) {
		return ErrInvalidGeometry
	}

	provider, err := s.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		return err
	}

	if err := s.providerRepo.UpdateLocation(ctx, req.ProviderID, req.Lat, req.Lng, req.Heading); err != nil {
		return err
	}

	if provider.IsAvailable {
		if err := s.locationStore.UpdateLocation(ctx, req.ProviderID, req.Lat, req.Lng); err != nil {
			return err
		}
		s.syncZoneQueues(ctx, req.ProviderID, req.Lat, req.Lng)
	}

	if err := s.bus.Publish(ctx, bus.TopicLocation, req.ProviderID, bus.LocationEvent{
		ProviderID: req.ProviderID,
		TripID:     req.TripID,
		Lat:        req.Lat,
		Lng:        req.Lng,
		Heading:    req.Heading,
		ReportedAt: time.Now().Unix(),
	}); err != nil {
		log.Printf("[provider] publish location for %s: %v", req.ProviderID, err)
	}

	return nil
}

// GetProvider retrieves a provider by ID.
func (s *ProviderService) GetProvider(ctx context.Context, providerID string) (*domain.Provider, error) {
	if providerID == "" {
		return nil, ErrInvalidProviderID
	}
	return s.providerRepo.GetByID(ctx, providerID)
}

// GetAllProviders retrieves all providers.
func (s *ProviderService) GetAllProviders(ctx context.Context) ([]*domain.Provider, error) {
	return s.providerRepo.GetAll(ctx)
}

// PendingOffer returns the provider's outstanding offer, or nil.
func (s *ProviderService) PendingOffer(ctx context.Context, providerID string) (*domain.Offer, error) {
	if providerID == "" {
		return nil, ErrInvalidProviderID
	}
	return s.offerRepo.GetPendingByProvider(ctx, providerID)
}

// syncZoneQueues keeps the provider queued in the queue-mode zone they
// are standing in and out of the ones they left. Re-enqueueing inside the
// same zone keeps the original FIFO position.
func (s *ProviderService) syncZoneQueues(ctx context.Context, providerID string, lat, lng float64) {
	zones, err := s.zoneRepo.GetAll(ctx)
	if err != nil {
		log.Printf("[provider] list zones: %v", err)
		return
	}

	for _, z := range zones {
		if !z.QueueMode {
			continue
		}

		if z.Contains(lat, lng) {
			if err := s.zoneQueue.Enqueue(ctx, z.ID, providerID); err != nil {
				log.Printf("[provider] enqueue %s in zone %s: %v", providerID, z.ID, err)
			}
		} else {
			if err := s.zoneQueue.Remove(ctx, z.ID, providerID); err != nil {
				log.Printf("[provider] dequeue %s from zone %s: %v", providerID, z.ID, err)
			}
		}
	}
}

// dequeueAll removes the provider from every queue-mode zone queue.
func (s *ProviderService) dequeueAll(ctx context.Context, providerID string) {
	zones, err := s.zoneRepo.GetAll(ctx)
	if err != nil {
		log.Printf("[provider] list zones: %v", err)
		return
	}

	for _, z := range zones {
		if !z.QueueMode {
			continue
		}
		if err := s.zoneQueue.Remove(ctx, z.ID, providerID); err != nil {
			log.Printf("[provider] dequeue %s from zone %s: %v", providerID, z.ID, err)
		}
	}
}
