package domain

// CommissionType determines how the platform commission is derived from a
// trip total.
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFixed      CommissionType = "fixed"
)

// PricingConfig holds the per-service-type pricing parameters. It is
// read-only to the engine; ownership lives with configuration management.
type PricingConfig struct {
	ID          string
	City        string
	ServiceType string
	Currency    string

	BaseFare        Money
	PerKm           Money
	PerMinute       Money
	MinimumFare     Money
	CancellationFee Money

	// CommissionValue is basis points for percentage commissions and
	// cents for fixed commissions.
	CommissionType  CommissionType
	CommissionValue int64

	TaxRateBps int64
}

// Commission returns the platform commission for a settled total.
func (p *PricingConfig) Commission(total Money) Money {
	switch p.CommissionType {
	case CommissionFixed:
		c := Money(p.CommissionValue)
		if c > total {
			return total
		}
		return c
	default:
		return total.MulBps(p.CommissionValue)
	}
}
