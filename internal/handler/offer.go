package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// OfferHandler handles HTTP requests for offer responses.
type OfferHandler struct {
	arbiter *service.Arbiter
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(arbiter *service.Arbiter) *OfferHandler {
	return &OfferHandler{arbiter: arbiter}
}

// OfferActionRequest identifies the provider answering an offer.
type OfferActionRequest struct {
	ProviderID string `json:"provider_id"`
}

// OfferResponse is the HTTP representation of an offer.
type OfferResponse struct {
	ID          string `json:"id"`
	TripID      string `json:"trip_id"`
	ProviderID  string `json:"provider_id"`
	Round       int    `json:"round"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expires_at"`
	CreatedAt   string `json:"created_at"`
	RespondedAt string `json:"responded_at,omitempty"`
}

func toOfferResponse(o *domain.Offer) OfferResponse {
	resp := OfferResponse{
		ID:         o.ID,
		TripID:     o.TripID,
		ProviderID: o.ProviderID,
		Round:      o.Round,
		Status:     string(o.Status),
		ExpiresAt:  o.ExpiresAt.Format(time.RFC3339),
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
	if !o.RespondedAt.IsZero() {
		resp.RespondedAt = o.RespondedAt.Format(time.RFC3339)
	}
	return resp
}

// Accept handles POST /v1/offers/:id/accept
func (h *OfferHandler) Accept(c *gin.Context) {
	var req OfferActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.arbiter.Accept(c.Request.Context(), c.Param("id"), req.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Reject handles POST /v1/offers/:id/reject
func (h *OfferHandler) Reject(c *gin.Context) {
	var req OfferActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.arbiter.Reject(c.Request.Context(), c.Param("id"), req.ProviderID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
