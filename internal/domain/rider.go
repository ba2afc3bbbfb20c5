package domain

import "time"

// Rider represents a rider account. ReferralBalance is the referral credit
// available to discount future trips; it is debited at settlement.
type Rider struct {
	ID              string
	Name            string
	Phone           string
	ReferredBy      string
	ReferralBalance Money
	CreatedAt       time.Time
}
