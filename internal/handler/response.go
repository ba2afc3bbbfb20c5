package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidProviderID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidOfferID),
		errors.Is(err, service.ErrInvalidGeometry),
		errors.Is(err, service.ErrInvalidServiceType),
		errors.Is(err, service.ErrInvalidPaymentMode),
		errors.Is(err, service.ErrPromoNotStarted),
		errors.Is(err, service.ErrPromoExpired),
		errors.Is(err, service.ErrPromoExhausted):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrRaceLost),
		errors.Is(err, service.ErrOfferNotPending),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTripNotCancellable),
		errors.Is(err, service.ErrTripNotCompleted):
		return http.StatusConflict

	// The response window closed before the provider answered
	case errors.Is(err, service.ErrOfferExpired):
		return http.StatusGone

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotConfirmedProvider):
		return http.StatusForbidden

	// Payment declined
	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired

	// Service unavailable
	case errors.Is(err, service.ErrNoProvidersAvailable),
		errors.Is(err, service.ErrProviderUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
