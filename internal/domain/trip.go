package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusRequested  TripStatus = "requested"
	TripStatusAccepted   TripStatus = "accepted"
	TripStatusArrived    TripStatus = "arrived"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// PaymentMode represents how a trip is paid for.
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeCard   PaymentMode = "card"
	PaymentModeWallet PaymentMode = "wallet"
)

// CancelReasonNoProviders marks a trip cancelled by the engine after all
// broadcast rounds were exhausted without an acceptance.
const CancelReasonNoProviders = "no_providers_available"

// FareBreakdown is an itemized, immutable fare. Every line is in cents and
// Total is the exact sum of the lines: base + distance + time + surge
// - promo - referral + minimum-fare adjustment + tax + tip + toll
// + cancellation fee.
type FareBreakdown struct {
	Base                  Money
	DistanceCost          Money
	TimeCost              Money
	SurgeFee              Money
	PromoDiscount         Money
	ReferralCredit        Money
	MinimumFareAdjustment Money
	Tax                   Money
	Tip                   Money
	Toll                  Money
	CancellationFee       Money
	Total                 Money
	SurgeBps              int64
	Currency              string
}

// Sum recomputes the total from the individual lines.
func (b *FareBreakdown) Sum() Money {
	return b.Base + b.DistanceCost + b.TimeCost + b.SurgeFee -
		b.PromoDiscount - b.ReferralCredit + b.MinimumFareAdjustment +
		b.Tax + b.Tip + b.Toll + b.CancellationFee
}

// Trip represents a rider's transportation request and its full lifecycle
// record.
type Trip struct {
	ID          string
	RiderID     string
	ServiceType string

	PickupLat  float64
	PickupLng  float64
	DropoffLat float64
	DropoffLng float64

	Status TripStatus

	// ConfirmedProviderID is set at most once per trip and is immutable
	// until the trip reaches a terminal state.
	ConfirmedProviderID string

	// BroadcastRound counts dispatch rounds issued for this trip.
	BroadcastRound int

	// RejectedProviderIDs grows monotonically: a provider who rejected or
	// timed out is never re-offered this trip.
	RejectedProviderIDs []string

	PaymentMode PaymentMode
	PromoCode   string
	TipAmount   Money

	SurgeBps      int64
	EstimatedFare Money
	Fare          *FareBreakdown

	// Actual telemetry recorded at completion.
	DistanceMeters  int64
	DurationSeconds int64

	IsTransferred        bool
	IsProviderEarningSet bool

	RequestedAt  time.Time
	AcceptedAt   time.Time
	ArrivedAt    time.Time
	StartedAt    time.Time
	CompletedAt  time.Time
	CancelledAt  time.Time
	CancelReason string
}

// IsTerminal reports whether the trip reached a final state.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}

// HasRejected reports whether the provider already rejected or timed out
// on this trip.
func (t *Trip) HasRejected(providerID string) bool {
	for _, id := range t.RejectedProviderIDs {
		if id == providerID {
			return true
		}
	}
	return false
}
