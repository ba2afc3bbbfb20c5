package repository

import (
	"context"

	"dispatch/internal/domain"
)

// WalletRepository defines the persistence operations for the append-only
// wallet ledger.
type WalletRepository interface {
	// CreateEntry appends a ledger entry. Returns ErrDuplicateLedgerEntry
	// when an entry for the same (trip, account) pair already exists.
	CreateEntry(ctx context.Context, entry *domain.WalletLedgerEntry) error

	// Balance sums the entries of an account.
	Balance(ctx context.Context, accountID string) (domain.Money, error)

	// ListByAccount retrieves the entries of an account, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.WalletLedgerEntry, error)

	// ListByTrip retrieves the entries written for a trip settlement.
	ListByTrip(ctx context.Context, tripID string) ([]*domain.WalletLedgerEntry, error)
}
