// Package notify defines the outbound notification collaborator. Delivery
// mechanics (push, SMS) live behind the interface; the engine fires and
// forgets.
package notify

import (
	"context"
	"log"
	"time"

	"dispatch/internal/domain"
)

// OfferSummary is the payload a provider sees with a new offer.
type OfferSummary struct {
	TripID        string
	PickupLat     float64
	PickupLng     float64
	DropoffLat    float64
	DropoffLng    float64
	ServiceType   string
	EstimatedFare domain.Money
}

// Notifier delivers dispatch notifications. Implementations must not
// block; failures are logged, never surfaced to dispatch.
type Notifier interface {
	// NotifyOffer tells a provider about a new time-boxed offer.
	NotifyOffer(ctx context.Context, providerID string, summary OfferSummary, expiresAt time.Time)

	// NotifyTripStatus tells a rider or provider about a trip status
	// change.
	NotifyTripStatus(ctx context.Context, partyID, tripID string, status domain.TripStatus)
}

// LogNotifier writes notifications to the process log. It stands in for
// the external push/SMS pipeline.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyOffer logs an offer notification.
func (n *LogNotifier) NotifyOffer(ctx context.Context, providerID string, summary OfferSummary, expiresAt time.Time) {
	log.Printf("[notify] offer to provider=%s trip=%s fare=%s expires=%s",
		providerID, summary.TripID, summary.EstimatedFare, expiresAt.Format(time.RFC3339))
}

// NotifyTripStatus logs a trip status notification.
func (n *LogNotifier) NotifyTripStatus(ctx context.Context, partyID, tripID string, status domain.TripStatus) {
	log.Printf("[notify] trip status to party=%s trip=%s status=%s", partyID, tripID, status)
}

var _ Notifier = (*LogNotifier)(nil)
