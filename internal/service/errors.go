package service

import "errors"

var (
	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidProviderID is returned when provider ID is empty.
	ErrInvalidProviderID = errors.New("invalid provider id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidOfferID is returned when offer ID is empty.
	ErrInvalidOfferID = errors.New("invalid offer id")

	// ErrInvalidGeometry is returned when pickup or dropoff coordinates
	// are out of range or coincide.
	ErrInvalidGeometry = errors.New("invalid trip geometry")

	// ErrInvalidServiceType is returned for an unknown service type.
	ErrInvalidServiceType = errors.New("invalid service type")

	// ErrInvalidPaymentMode is returned for an unknown payment mode.
	ErrInvalidPaymentMode = errors.New("invalid payment mode")

	// ErrNoProvidersAvailable is returned when every broadcast round
	// exhausted without an acceptance.
	ErrNoProvidersAvailable = errors.New("no providers available")

	// ErrOfferExpired is returned when a provider responds after the
	// offer's response window closed.
	ErrOfferExpired = errors.New("offer expired")

	// ErrOfferNotPending is returned when an offer already reached a
	// terminal status.
	ErrOfferNotPending = errors.New("offer is not pending")

	// ErrRaceLost is returned to an accepting provider when another
	// provider already won the trip.
	ErrRaceLost = errors.New("trip already taken by another provider")

	// ErrNotConfirmedProvider is returned when a lifecycle action comes
	// from a provider other than the trip's confirmed provider.
	ErrNotConfirmedProvider = errors.New("provider is not confirmed for this trip")

	// ErrInvalidTransition is returned when a trip status change skips a
	// state or runs backwards.
	ErrInvalidTransition = errors.New("invalid trip status transition")

	// ErrTripNotCancellable is returned when the trip is in progress or
	// already terminal.
	ErrTripNotCancellable = errors.New("trip cannot be cancelled in current state")

	// ErrTripNotCompleted is returned when settlement is requested for a
	// trip that has not completed.
	ErrTripNotCompleted = errors.New("trip is not completed")

	// ErrProviderUnavailable is returned when an offered provider went
	// off duty before responding.
	ErrProviderUnavailable = errors.New("provider is not available")

	// ErrPromoNotStarted is returned when a promo code's validity window
	// has not opened.
	ErrPromoNotStarted = errors.New("promo code not yet valid")

	// ErrPromoExpired is returned when a promo code's validity window has
	// closed.
	ErrPromoExpired = errors.New("promo code expired")

	// ErrPromoExhausted is returned when a promo code's usage cap has
	// been reached.
	ErrPromoExhausted = errors.New("promo code usage cap reached")

	// ErrPaymentFailed is returned when the card gateway declines the
	// charge after retries.
	ErrPaymentFailed = errors.New("payment failed")
)
