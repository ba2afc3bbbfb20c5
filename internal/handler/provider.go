package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// ProviderHandler handles HTTP requests for providers.
type ProviderHandler struct {
	providerService *service.ProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providerService *service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

// RegisterProviderRequest is the HTTP request body for registering a
// provider.
type RegisterProviderRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	ServiceType string `json:"service_type"`
}

// SetAvailabilityRequest is the HTTP request body for flipping duty
// status.
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// UpdateLocationRequest is the HTTP request body for a position report.
type UpdateLocationRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading,omitempty"`
	TripID  string  `json:"trip_id,omitempty"`
}

// ProviderResponse is the HTTP representation of a provider.
type ProviderResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	ServiceType    string  `json:"service_type"`
	IsActive       bool    `json:"is_active"`
	IsAvailable    bool    `json:"is_available"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	AcceptedCount  int     `json:"accepted_count"`
	CompletedCount int     `json:"completed_count"`
	CancelledCount int     `json:"cancelled_count"`
	RejectedCount  int     `json:"rejected_count"`
}

func toProviderResponse(p *domain.Provider) ProviderResponse {
	return ProviderResponse{
		ID:             p.ID,
		Name:           p.Name,
		Phone:          p.Phone,
		ServiceType:    p.ServiceType,
		IsActive:       p.IsActive,
		IsAvailable:    p.IsAvailable,
		Lat:            p.Lat,
		Lng:            p.Lng,
		AcceptedCount:  p.AcceptedCount,
		CompletedCount: p.CompletedCount,
		CancelledCount: p.CancelledCount,
		RejectedCount:  p.RejectedCount,
	}
}

// Register handles POST /v1/providers
func (h *ProviderHandler) Register(c *gin.Context) {
	var req RegisterProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	provider, err := h.providerService.RegisterProvider(c.Request.Context(), service.RegisterProviderRequest{
		Name:        req.Name,
		Phone:       req.Phone,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toProviderResponse(provider))
}

// Get handles GET /v1/providers/:id
func (h *ProviderHandler) Get(c *gin.Context) {
	provider, err := h.providerService.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toProviderResponse(provider))
}

// GetAll handles GET /v1/providers
func (h *ProviderHandler) GetAll(c *gin.Context) {
	providers, err := h.providerService.GetAllProviders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		response = append(response, toProviderResponse(p))
	}

	respondJSON(c, http.StatusOK, response)
}

// SetAvailability handles PUT /v1/providers/:id/availability
func (h *ProviderHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	provider, err := h.providerService.SetAvailability(c.Request.Context(), c.Param("id"), req.Available)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toProviderResponse(provider))
}

// UpdateLocation handles PUT /v1/providers/:id/location
func (h *ProviderHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.providerService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		ProviderID: c.Param("id"),
		Lat:        req.Lat,
		Lng:        req.Lng,
		Heading:    req.Heading,
		TripID:     req.TripID,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// PendingOffer handles GET /v1/providers/:id/offer
func (h *ProviderHandler) PendingOffer(c *gin.Context) {
	offer, err := h.providerService.PendingOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if offer == nil {
		c.Status(http.StatusNoContent)
		return
	}

	respondJSON(c, http.StatusOK, toOfferResponse(offer))
}
