package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// PlatformHandler handles operator-facing catalog requests.
type PlatformHandler struct {
	platformService *service.PlatformService
}

// NewPlatformHandler creates a new PlatformHandler.
func NewPlatformHandler(platformService *service.PlatformService) *PlatformHandler {
	return &PlatformHandler{platformService: platformService}
}

// CreatePromoRequest is the HTTP request body for creating a promo code.
type CreatePromoRequest struct {
	Code          string `json:"code"`
	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`
	UsesCap       int    `json:"uses_cap"`
	ValidFrom     string `json:"valid_from"`
	ValidUntil    string `json:"valid_until"`
}

// PromoResponse is the HTTP representation of a promo code.
type PromoResponse struct {
	Code          string `json:"code"`
	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`
	UsesCap       int    `json:"uses_cap"`
	UsesConsumed  int    `json:"uses_consumed"`
	ValidFrom     string `json:"valid_from"`
	ValidUntil    string `json:"valid_until"`
}

func toPromoResponse(p *domain.PromoCode) PromoResponse {
	return PromoResponse{
		Code:          p.Code,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		UsesCap:       p.UsesCap,
		UsesConsumed:  p.UsesConsumed,
		ValidFrom:     p.ValidFrom.Format(time.RFC3339),
		ValidUntil:    p.ValidUntil.Format(time.RFC3339),
	}
}

// CreatePromo handles POST /v1/promos
func (h *PlatformHandler) CreatePromo(c *gin.Context) {
	var req CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid valid_from"})
		return
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid valid_until"})
		return
	}

	promo, err := h.platformService.CreatePromo(c.Request.Context(), service.CreatePromoRequest{
		Code:          req.Code,
		DiscountType:  domain.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		UsesCap:       req.UsesCap,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPromoResponse(promo))
}

// GetPromo handles GET /v1/promos/:code
func (h *PlatformHandler) GetPromo(c *gin.Context) {
	promo, err := h.platformService.GetPromo(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPromoResponse(promo))
}

// CreateZoneRequest is the HTTP request body for creating a zone.
type CreateZoneRequest struct {
	Name      string  `json:"name"`
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	RadiusKm  float64 `json:"radius_km"`
	QueueMode bool    `json:"queue_mode"`
}

// ZoneResponse is the HTTP representation of a zone.
type ZoneResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	RadiusKm  float64 `json:"radius_km"`
	QueueMode bool    `json:"queue_mode"`
}

func toZoneResponse(z *domain.Zone) ZoneResponse {
	return ZoneResponse{
		ID:        z.ID,
		Name:      z.Name,
		CenterLat: z.CenterLat,
		CenterLng: z.CenterLng,
		RadiusKm:  z.RadiusKm,
		QueueMode: z.QueueMode,
	}
}

// CreateZone handles POST /v1/zones
func (h *PlatformHandler) CreateZone(c *gin.Context) {
	var req CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	zone, err := h.platformService.CreateZone(c.Request.Context(), service.CreateZoneRequest{
		Name:      req.Name,
		CenterLat: req.CenterLat,
		CenterLng: req.CenterLng,
		RadiusKm:  req.RadiusKm,
		QueueMode: req.QueueMode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toZoneResponse(zone))
}

// GetZones handles GET /v1/zones
func (h *PlatformHandler) GetZones(c *gin.Context) {
	zones, err := h.platformService.GetAllZones(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ZoneResponse, 0, len(zones))
	for _, z := range zones {
		response = append(response, toZoneResponse(z))
	}

	respondJSON(c, http.StatusOK, response)
}

// PricingResponse is the HTTP representation of a pricing config.
type PricingResponse struct {
	ServiceType          string `json:"service_type"`
	Currency             string `json:"currency"`
	BaseFareCents        int64  `json:"base_fare_cents"`
	PerKmCents           int64  `json:"per_km_cents"`
	PerMinuteCents       int64  `json:"per_minute_cents"`
	MinimumFareCents     int64  `json:"minimum_fare_cents"`
	CancellationFeeCents int64  `json:"cancellation_fee_cents"`
	CommissionType       string `json:"commission_type"`
	CommissionValue      int64  `json:"commission_value"`
	TaxRateBps           int64  `json:"tax_rate_bps"`
}

// GetPricing handles GET /v1/pricing/:service_type
func (h *PlatformHandler) GetPricing(c *gin.Context) {
	pricing, err := h.platformService.GetPricing(c.Request.Context(), c.Param("service_type"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PricingResponse{
		ServiceType:          pricing.ServiceType,
		Currency:             pricing.Currency,
		BaseFareCents:        int64(pricing.BaseFare),
		PerKmCents:           int64(pricing.PerKm),
		PerMinuteCents:       int64(pricing.PerMinute),
		MinimumFareCents:     int64(pricing.MinimumFare),
		CancellationFeeCents: int64(pricing.CancellationFee),
		CommissionType:       string(pricing.CommissionType),
		CommissionValue:      pricing.CommissionValue,
		TaxRateBps:           pricing.TaxRateBps,
	})
}
