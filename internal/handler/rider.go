package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// RiderHandler handles HTTP requests for riders and wallet statements.
type RiderHandler struct {
	riderService *service.RiderService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService *service.RiderService) *RiderHandler {
	return &RiderHandler{riderService: riderService}
}

// CreateRiderRequest is the HTTP request body for creating a rider.
type CreateRiderRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	ReferredBy string `json:"referred_by,omitempty"`
}

// RiderResponse is the HTTP representation of a rider.
type RiderResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Phone                string `json:"phone"`
	ReferredBy           string `json:"referred_by,omitempty"`
	ReferralBalanceCents int64  `json:"referral_balance_cents"`
	CreatedAt            string `json:"created_at"`
}

func toRiderResponse(r *domain.Rider) RiderResponse {
	return RiderResponse{
		ID:                   r.ID,
		Name:                 r.Name,
		Phone:                r.Phone,
		ReferredBy:           r.ReferredBy,
		ReferralBalanceCents: int64(r.ReferralBalance),
		CreatedAt:            r.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /v1/riders
func (h *RiderHandler) Create(c *gin.Context) {
	var req CreateRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rider, err := h.riderService.CreateRider(c.Request.Context(), service.CreateRiderRequest{
		Name:       req.Name,
		Phone:      req.Phone,
		ReferredBy: req.ReferredBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRiderResponse(rider))
}

// Get handles GET /v1/riders/:id
func (h *RiderHandler) Get(c *gin.Context) {
	rider, err := h.riderService.GetRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponse(rider))
}

// GetAll handles GET /v1/riders
func (h *RiderHandler) GetAll(c *gin.Context) {
	riders, err := h.riderService.GetAllRiders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RiderResponse, 0, len(riders))
	for _, r := range riders {
		response = append(response, toRiderResponse(r))
	}

	respondJSON(c, http.StatusOK, response)
}

// WalletResponse is the HTTP representation of a wallet statement.
type WalletResponse struct {
	AccountID    string                `json:"account_id"`
	BalanceCents int64                 `json:"balance_cents"`
	Entries      []LedgerEntryResponse `json:"entries"`
}

// GetWallet handles GET /v1/wallets/:account
func (h *RiderHandler) GetWallet(c *gin.Context) {
	statement, err := h.riderService.GetWallet(c.Request.Context(), c.Param("account"))
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]LedgerEntryResponse, 0, len(statement.Entries))
	for _, e := range statement.Entries {
		entries = append(entries, LedgerEntryResponse{
			ID:          e.ID,
			AccountID:   e.AccountID,
			TripID:      e.TripID,
			Type:        string(e.Type),
			AmountCents: int64(e.Amount),
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, WalletResponse{
		AccountID:    statement.AccountID,
		BalanceCents: int64(statement.Balance),
		Entries:      entries,
	})
}
