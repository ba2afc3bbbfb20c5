package domain

import "time"

// LedgerEntryType classifies a wallet ledger entry.
type LedgerEntryType string

const (
	LedgerProviderEarning    LedgerEntryType = "provider_earning"
	LedgerPlatformCommission LedgerEntryType = "platform_commission"
	LedgerReferralCredit     LedgerEntryType = "referral_credit"
	LedgerRiderCharge        LedgerEntryType = "rider_charge"
)

// PlatformAccountID is the wallet account that accrues commissions.
const PlatformAccountID = "platform"

// ReferralAccountID returns the dedicated referral-credit account for a
// rider. Keeping it separate preserves the one-entry-per-(trip, account)
// ledger invariant alongside the rider's charge entry.
func ReferralAccountID(riderID string) string {
	return "referral:" + riderID
}

// WalletLedgerEntry is an append-only record of a balance delta tied to
// exactly one trip settlement event. For a given (trip, account) pair at
// most one entry exists, which makes settlement idempotent.
type WalletLedgerEntry struct {
	ID        string
	AccountID string
	TripID    string
	Type      LedgerEntryType
	Amount    Money
	CreatedAt time.Time
}
