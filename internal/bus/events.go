package bus

import "time"

// OfferCreatedEvent is published to offer.created for each offer in a
// broadcast round.
type OfferCreatedEvent struct {
	OfferID    string    `json:"offer_id"`
	TripID     string    `json:"trip_id"`
	ProviderID string    `json:"provider_id"`
	Round      int       `json:"round"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// OfferAcceptedEvent is published to offer.accepted when a provider wins
// a trip.
type OfferAcceptedEvent struct {
	OfferID    string `json:"offer_id"`
	TripID     string `json:"trip_id"`
	ProviderID string `json:"provider_id"`
}

// OfferResponseEvent arrives on offer.response from driver clients.
type OfferResponseEvent struct {
	OfferID    string `json:"offer_id"`
	ProviderID string `json:"provider_id"`
	Action     string `json:"action"` // "accept" or "reject"
}

// TripStatusEvent is published to trip.status_changed on every lifecycle
// transition.
type TripStatusEvent struct {
	TripID     string `json:"trip_id"`
	RiderID    string `json:"rider_id"`
	ProviderID string `json:"provider_id,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// LocationEvent is published to location.updated on provider position
// reports.
type LocationEvent struct {
	ProviderID string  `json:"provider_id"`
	TripID     string  `json:"trip_id,omitempty"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Heading    float64 `json:"heading"`
	ReportedAt int64   `json:"reported_at"`
}
