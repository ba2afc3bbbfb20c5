package domain

import "fmt"

// Money is a monetary amount in cents. All fare arithmetic is integer;
// rounding happens only when deriving a line item (per-km, per-minute,
// percentage), never on a running total.
type Money int64

// String formats the amount as a decimal currency string, e.g. "17.28".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, m/100, m%100)
}

// MulBps multiplies the amount by a basis-point factor (10000 = 1.0),
// rounding half-up.
func (m Money) MulBps(bps int64) Money {
	return Money(roundDiv(int64(m)*bps, 10000))
}

// roundDiv divides num by den rounding half away from zero.
func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	if (num < 0) != (den < 0) {
		return (num - den/2) / den
	}
	return (num + den/2) / den
}

// PerDistance returns rate-per-km applied to a distance in meters.
func PerDistance(perKm Money, meters int64) Money {
	return Money(roundDiv(int64(perKm)*meters, 1000))
}

// PerTime returns rate-per-minute applied to a duration in seconds.
func PerTime(perMinute Money, seconds int64) Money {
	return Money(roundDiv(int64(perMinute)*seconds, 60))
}
