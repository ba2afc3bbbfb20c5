package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for creating a trip.
type CreateTripRequest struct {
	RiderID     string  `json:"rider_id"`
	ServiceType string  `json:"service_type"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DropoffLat  float64 `json:"dropoff_lat"`
	DropoffLng  float64 `json:"dropoff_lng"`
	PaymentMode string  `json:"payment_mode,omitempty"`
	PromoCode   string  `json:"promo_code,omitempty"`
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TripActionRequest identifies the provider performing a lifecycle action.
type TripActionRequest struct {
	ProviderID string `json:"provider_id"`
}

// ProviderCancelTripRequest is the HTTP request body for a provider-side
// cancellation.
type ProviderCancelTripRequest struct {
	ProviderID string `json:"provider_id"`
	Reason     string `json:"reason,omitempty"`
}

// CompleteTripRequest is the HTTP request body for completing a trip.
type CompleteTripRequest struct {
	ProviderID      string `json:"provider_id"`
	DistanceMeters  int64  `json:"distance_meters,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	TipCents        int64  `json:"tip_cents,omitempty"`
	TollCents       int64  `json:"toll_cents,omitempty"`
}

// FareResponse is the itemized fare in a trip response. All amounts are
// cents.
type FareResponse struct {
	Base                  int64  `json:"base"`
	DistanceCost          int64  `json:"distance_cost"`
	TimeCost              int64  `json:"time_cost"`
	SurgeFee              int64  `json:"surge_fee"`
	PromoDiscount         int64  `json:"promo_discount"`
	ReferralCredit        int64  `json:"referral_credit"`
	MinimumFareAdjustment int64  `json:"minimum_fare_adjustment"`
	Tax                   int64  `json:"tax"`
	Tip                   int64  `json:"tip"`
	Toll                  int64  `json:"toll"`
	CancellationFee       int64  `json:"cancellation_fee"`
	Total                 int64  `json:"total"`
	TotalDisplay          string `json:"total_display"`
	SurgeBps              int64  `json:"surge_bps"`
	Currency              string `json:"currency"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID                  string        `json:"id"`
	RiderID             string        `json:"rider_id"`
	ServiceType         string        `json:"service_type"`
	PickupLat           float64       `json:"pickup_lat"`
	PickupLng           float64       `json:"pickup_lng"`
	DropoffLat          float64       `json:"dropoff_lat"`
	DropoffLng          float64       `json:"dropoff_lng"`
	Status              string        `json:"status"`
	ConfirmedProviderID string        `json:"confirmed_provider_id,omitempty"`
	BroadcastRound      int           `json:"broadcast_round"`
	PaymentMode         string        `json:"payment_mode"`
	PromoCode           string        `json:"promo_code,omitempty"`
	SurgeBps            int64         `json:"surge_bps"`
	EstimatedFareCents  int64         `json:"estimated_fare_cents"`
	Fare                *FareResponse `json:"fare,omitempty"`
	DistanceMeters      int64         `json:"distance_meters,omitempty"`
	DurationSeconds     int64         `json:"duration_seconds,omitempty"`
	IsTransferred       bool          `json:"is_transferred"`
	RequestedAt         string        `json:"requested_at"`
	AcceptedAt          string        `json:"accepted_at,omitempty"`
	ArrivedAt           string        `json:"arrived_at,omitempty"`
	StartedAt           string        `json:"started_at,omitempty"`
	CompletedAt         string        `json:"completed_at,omitempty"`
	CancelledAt         string        `json:"cancelled_at,omitempty"`
	CancelReason        string        `json:"cancel_reason,omitempty"`
}

func toFareResponse(f *domain.FareBreakdown) *FareResponse {
	if f == nil {
		return nil
	}
	return &FareResponse{
		Base:                  int64(f.Base),
		DistanceCost:          int64(f.DistanceCost),
		TimeCost:              int64(f.TimeCost),
		SurgeFee:              int64(f.SurgeFee),
		PromoDiscount:         int64(f.PromoDiscount),
		ReferralCredit:        int64(f.ReferralCredit),
		MinimumFareAdjustment: int64(f.MinimumFareAdjustment),
		Tax:                   int64(f.Tax),
		Tip:                   int64(f.Tip),
		Toll:                  int64(f.Toll),
		CancellationFee:       int64(f.CancellationFee),
		Total:                 int64(f.Total),
		TotalDisplay:          f.Total.String(),
		SurgeBps:              f.SurgeBps,
		Currency:              f.Currency,
	}
}

func toTripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:                  t.ID,
		RiderID:             t.RiderID,
		ServiceType:         t.ServiceType,
		PickupLat:           t.PickupLat,
		PickupLng:           t.PickupLng,
		DropoffLat:          t.DropoffLat,
		DropoffLng:          t.DropoffLng,
		Status:              string(t.Status),
		ConfirmedProviderID: t.ConfirmedProviderID,
		BroadcastRound:      t.BroadcastRound,
		PaymentMode:         string(t.PaymentMode),
		PromoCode:           t.PromoCode,
		SurgeBps:            t.SurgeBps,
		EstimatedFareCents:  int64(t.EstimatedFare),
		Fare:                toFareResponse(t.Fare),
		DistanceMeters:      t.DistanceMeters,
		DurationSeconds:     t.DurationSeconds,
		IsTransferred:       t.IsTransferred,
		RequestedAt:         t.RequestedAt.Format(time.RFC3339),
		CancelReason:        t.CancelReason,
	}

	if !t.AcceptedAt.IsZero() {
		resp.AcceptedAt = t.AcceptedAt.Format(time.RFC3339)
	}
	if !t.ArrivedAt.IsZero() {
		resp.ArrivedAt = t.ArrivedAt.Format(time.RFC3339)
	}
	if !t.StartedAt.IsZero() {
		resp.StartedAt = t.StartedAt.Format(time.RFC3339)
	}
	if !t.CompletedAt.IsZero() {
		resp.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	if !t.CancelledAt.IsZero() {
		resp.CancelledAt = t.CancelledAt.Format(time.RFC3339)
	}

	return resp
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.RequestTrip(c.Request.Context(), service.RequestTripRequest{
		RiderID:     req.RiderID,
		ServiceType: req.ServiceType,
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		DropoffLat:  req.DropoffLat,
		DropoffLng:  req.DropoffLng,
		PaymentMode: domain.PaymentMode(req.PaymentMode),
		PromoCode:   req.PromoCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		response = append(response, toTripResponse(t))
	}

	respondJSON(c, http.StatusOK, response)
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ProviderCancelTrip handles POST /v1/trips/:id/provider_cancel
func (h *TripHandler) ProviderCancelTrip(c *gin.Context) {
	var req ProviderCancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.CancelTripByProvider(c.Request.Context(), c.Param("id"), req.ProviderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// MarkArrived handles POST /v1/trips/:id/arrived
func (h *TripHandler) MarkArrived(c *gin.Context) {
	var req TripActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.MarkArrived(c.Request.Context(), c.Param("id"), req.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req TripActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), c.Param("id"), req.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	var req CompleteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.CompleteTrip(c.Request.Context(), service.CompleteTripRequest{
		TripID:          c.Param("id"),
		ProviderID:      req.ProviderID,
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		Tip:             domain.Money(req.TipCents),
		Toll:            domain.Money(req.TollCents),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ReceiptResponse is the HTTP representation of a trip receipt.
type ReceiptResponse struct {
	Trip    TripResponse          `json:"trip"`
	Fare    *FareResponse         `json:"fare"`
	Ledger  []LedgerEntryResponse `json:"ledger"`
	Settled bool                  `json:"settled"`
}

// LedgerEntryResponse is the HTTP representation of a wallet ledger entry.
type LedgerEntryResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	TripID      string `json:"trip_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	CreatedAt   string `json:"created_at"`
}

// GetReceipt handles GET /v1/trips/:id/receipt
func (h *TripHandler) GetReceipt(c *gin.Context) {
	receipt, err := h.tripService.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ledger := make([]LedgerEntryResponse, 0, len(receipt.LedgerEntries))
	for _, e := range receipt.LedgerEntries {
		ledger = append(ledger, LedgerEntryResponse{
			ID:          e.ID,
			AccountID:   e.AccountID,
			TripID:      e.TripID,
			Type:        string(e.Type),
			AmountCents: int64(e.Amount),
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, ReceiptResponse{
		Trip:    toTripResponse(receipt.Trip),
		Fare:    toFareResponse(receipt.Fare),
		Ledger:  ledger,
		Settled: receipt.Trip.IsTransferred,
	})
}

// ListOffers handles GET /v1/trips/:id/offers
func (h *TripHandler) ListOffers(c *gin.Context) {
	offers, err := h.tripService.ListOffers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		response = append(response, toOfferResponse(o))
	}

	respondJSON(c, http.StatusOK, response)
}
