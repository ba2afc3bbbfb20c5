package domain

import "time"

// DiscountType determines how a promo discount is derived from a subtotal.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode is a rider-facing discount code. UsesConsumed never exceeds
// UsesCap; the increment is transactional with trip completion, never with
// trip creation.
type PromoCode struct {
	Code         string
	DiscountType DiscountType
	// DiscountValue is basis points for percentage discounts and cents
	// for fixed discounts.
	DiscountValue int64
	UsesCap       int
	UsesConsumed  int
	ValidFrom     time.Time
	ValidUntil    time.Time
}

// Started reports whether the validity window has opened.
func (p *PromoCode) Started(now time.Time) bool {
	return !now.Before(p.ValidFrom)
}

// Expired reports whether the validity window has closed.
func (p *PromoCode) Expired(now time.Time) bool {
	return now.After(p.ValidUntil)
}

// Exhausted reports whether the usage cap has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.UsesConsumed >= p.UsesCap
}

// Discount returns the discount for a subtotal, capped at the subtotal.
func (p *PromoCode) Discount(subtotal Money) Money {
	var d Money
	switch p.DiscountType {
	case DiscountFixed:
		d = Money(p.DiscountValue)
	default:
		d = subtotal.MulBps(p.DiscountValue)
	}
	if d > subtotal {
		return subtotal
	}
	return d
}
