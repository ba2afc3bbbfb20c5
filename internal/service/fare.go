package service

import (
	"time"

	"dispatch/internal/domain"
)

// FareCalculator turns trip telemetry and pricing configuration into an
// itemized breakdown. It is pure: no clock reads, no I/O, no mutation of
// its inputs, so the same input always produces the same breakdown.
type FareCalculator struct{}

// NewFareCalculator creates a FareCalculator.
func NewFareCalculator() *FareCalculator {
	return &FareCalculator{}
}

// FareInput carries everything a fare computation depends on. Now is the
// evaluation instant for promo validity, passed in so the computation
// stays deterministic.
type FareInput struct {
	DistanceMeters  int64
	DurationSeconds int64

	Pricing  *domain.PricingConfig
	SurgeBps int64

	Promo           *domain.PromoCode
	ReferralBalance domain.Money

	Tip  domain.Money
	Toll domain.Money

	Now time.Time
}

// ValidatePromo checks a promo code's validity window and usage cap.
func ValidatePromo(promo *domain.PromoCode, now time.Time) error {
	if promo == nil {
		return nil
	}
	if !promo.Started(now) {
		return ErrPromoNotStarted
	}
	if promo.Expired(now) {
		return ErrPromoExpired
	}
	if promo.Exhausted() {
		return ErrPromoExhausted
	}
	return nil
}

// Calculate produces the itemized breakdown. The pipeline is fixed:
// base, distance and time costs, surge on that subtotal, promo discount,
// referral credit, minimum-fare adjustment, tax on the adjusted amount,
// then tip and tolls. An invalid promo in the input is skipped, not an
// error; validation is the caller's concern via ValidatePromo.
func (c *FareCalculator) Calculate(in FareInput) *domain.FareBreakdown {
	p := in.Pricing

	b := &domain.FareBreakdown{
		Base:         p.BaseFare,
		DistanceCost: domain.PerDistance(p.PerKm, in.DistanceMeters),
		TimeCost:     domain.PerTime(p.PerMinute, in.DurationSeconds),
		SurgeBps:     in.SurgeBps,
		Currency:     p.Currency,
		Tip:          in.Tip,
		Toll:         in.Toll,
	}

	subtotal := b.Base + b.DistanceCost + b.TimeCost

	if in.SurgeBps > 10000 {
		b.SurgeFee = subtotal.MulBps(in.SurgeBps - 10000)
		subtotal += b.SurgeFee
	} else {
		b.SurgeBps = 10000
	}

	if in.Promo != nil && ValidatePromo(in.Promo, in.Now) == nil {
		b.PromoDiscount = in.Promo.Discount(subtotal)
		subtotal -= b.PromoDiscount
	}

	if in.ReferralBalance > 0 {
		b.ReferralCredit = in.ReferralBalance
		if b.ReferralCredit > subtotal {
			b.ReferralCredit = subtotal
		}
		subtotal -= b.ReferralCredit
	}

	// Minimum fare applies after discounts: a discounted trip is still
	// topped up to the floor.
	if subtotal < p.MinimumFare {
		b.MinimumFareAdjustment = p.MinimumFare - subtotal
		subtotal += b.MinimumFareAdjustment
	}

	b.Tax = subtotal.MulBps(p.TaxRateBps)

	b.Total = subtotal + b.Tax + b.Tip + b.Toll

	return b
}

// CancellationFare produces the breakdown for a trip cancelled after the
// provider arrived: the cancellation fee is the only line.
func (c *FareCalculator) CancellationFare(p *domain.PricingConfig) *domain.FareBreakdown {
	return &domain.FareBreakdown{
		CancellationFee: p.CancellationFee,
		Total:           p.CancellationFee,
		SurgeBps:        10000,
		Currency:        p.Currency,
	}
}
