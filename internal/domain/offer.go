package domain

import "time"

// OfferStatus represents the current status of an offer.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// Offer is a time-boxed proposal of a specific trip to a specific provider.
// For a given trip at most one offer ever reaches accepted; once one is
// accepted every other offer for that trip is terminal.
type Offer struct {
	ID          string
	TripID      string
	ProviderID  string
	Round       int
	Status      OfferStatus
	ExpiresAt   time.Time
	CreatedAt   time.Time
	RespondedAt time.Time
}

// Expired reports whether the offer's response window has closed.
func (o *Offer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
