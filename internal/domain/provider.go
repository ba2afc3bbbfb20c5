package domain

// ServiceType identifiers shared by providers and trips.
const (
	ServiceTypeEconomy = "economy"
	ServiceTypePremium = "premium"
)

// ProviderCounter names a per-provider running counter.
type ProviderCounter string

const (
	CounterAccepted  ProviderCounter = "accepted_count"
	CounterCompleted ProviderCounter = "completed_count"
	CounterCancelled ProviderCounter = "cancelled_count"
	CounterRejected  ProviderCounter = "rejected_count"
)

// Provider represents an independent driver account capable of accepting
// trips.
type Provider struct {
	ID          string
	Name        string
	Phone       string
	ServiceType string

	// IsActive is the account switch; IsAvailable is the live duty flag.
	// Both must hold for the provider to receive offers.
	IsActive    bool
	IsAvailable bool

	Lat     float64
	Lng     float64
	Heading float64

	ZoneID string

	AcceptedCount  int
	CompletedCount int
	CancelledCount int
	RejectedCount  int
}

// Eligible reports whether the provider can be offered a trip of the given
// service type.
func (p *Provider) Eligible(serviceType string) bool {
	return p.IsActive && p.IsAvailable && p.ServiceType == serviceType
}
