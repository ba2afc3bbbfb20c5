package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrInvalidRiderID, http.StatusBadRequest},
		{service.ErrInvalidGeometry, http.StatusBadRequest},
		{service.ErrInvalidServiceType, http.StatusBadRequest},
		{service.ErrPromoExhausted, http.StatusBadRequest},
		{service.ErrRaceLost, http.StatusConflict},
		{service.ErrOfferNotPending, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusConflict},
		{service.ErrTripNotCancellable, http.StatusConflict},
		{service.ErrTripNotCompleted, http.StatusConflict},
		{service.ErrOfferExpired, http.StatusGone},
		{service.ErrNotConfirmedProvider, http.StatusForbidden},
		{service.ErrPaymentFailed, http.StatusPaymentRequired},
		{service.ErrNoProvidersAvailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapErrorToHTTPStatus(tt.err); got != tt.want {
			t.Errorf("mapErrorToHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}

	// Wrapped errors map the same as their sentinels.
	wrapped := fmt.Errorf("%w: card declined", service.ErrPaymentFailed)
	if got := mapErrorToHTTPStatus(wrapped); got != http.StatusPaymentRequired {
		t.Errorf("wrapped payment error = %d, want %d", got, http.StatusPaymentRequired)
	}
}
