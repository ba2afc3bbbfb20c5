package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// PlatformService handles the operator-facing catalog: promo codes and
// zones. Pricing is read-only here; it is seeded by operations tooling.
type PlatformService struct {
	promoRepo   repository.PromoRepository
	zoneRepo    repository.ZoneRepository
	pricingRepo repository.PricingRepository
}

// NewPlatformService creates a new PlatformService.
func NewPlatformService(
	promoRepo repository.PromoRepository,
	zoneRepo repository.ZoneRepository,
	pricingRepo repository.PricingRepository,
) *PlatformService {
	return &PlatformService{
		promoRepo:   promoRepo,
		zoneRepo:    zoneRepo,
		pricingRepo: pricingRepo,
	}
}

// CreatePromoRequest contains the parameters for creating a promo code.
type CreatePromoRequest struct {
	Code          string
	DiscountType  domain.DiscountType
	DiscountValue int64
	UsesCap       int
	ValidFrom     time.Time
	ValidUntil    time.Time
}

// CreatePromo registers a promo code.
func (s *PlatformService) CreatePromo(ctx context.Context, req CreatePromoRequest) (*domain.PromoCode, error) {
	promo := &domain.PromoCode{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		UsesCap:       req.UsesCap,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, err
	}

	return promo, nil
}

// GetPromo retrieves a promo code.
func (s *PlatformService) GetPromo(ctx context.Context, code string) (*domain.PromoCode, error) {
	return s.promoRepo.GetByCode(ctx, code)
}

// CreateZoneRequest contains the parameters for creating a zone.
type CreateZoneRequest struct {
	Name      string
	CenterLat float64
	CenterLng float64
	RadiusKm  float64
	QueueMode bool
}

// CreateZone registers a service zone.
func (s *PlatformService) CreateZone(ctx context.Context, req CreateZoneRequest) (*domain.Zone, error) {
	if !domain.ValidLatitude(req.CenterLat) || !domain.ValidLongitude(req.CenterLng) || req.RadiusKm <= 0 {
		return nil, ErrInvalidGeometry
	}

	zone := &domain.Zone{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CenterLat: req.CenterLat,
		CenterLng: req.CenterLng,
		RadiusKm:  req.RadiusKm,
		QueueMode: req.QueueMode,
	}

	if err := s.zoneRepo.Create(ctx, zone); err != nil {
		return nil, err
	}

	return zone, nil
}

// GetAllZones retrieves all zones.
func (s *PlatformService) GetAllZones(ctx context.Context) ([]*domain.Zone, error) {
	return s.zoneRepo.GetAll(ctx)
}

// GetPricing retrieves the active pricing config for a service type.
func (s *PlatformService) GetPricing(ctx context.Context, serviceType string) (*domain.PricingConfig, error) {
	if serviceType != domain.ServiceTypeEconomy && serviceType != domain.ServiceTypePremium {
		return nil, ErrInvalidServiceType
	}
	return s.pricingRepo.GetByServiceType(ctx, serviceType)
}
