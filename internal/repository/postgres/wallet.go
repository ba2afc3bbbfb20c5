package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of
// repository.WalletRepository. The wallet_ledger table carries a unique
// constraint on (trip_id, account_id).
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// CreateEntry appends a ledger entry.
func (r *WalletRepository) CreateEntry(ctx context.Context, entry *domain.WalletLedgerEntry) error {
	query := `
		INSERT INTO wallet_ledger (id, account_id, trip_id, entry_type, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.TripID,
		entry.Type,
		int64(entry.Amount),
		entry.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicateLedgerEntry
		}
		return err
	}

	return nil
}

// Balance sums the entries of an account.
func (r *WalletRepository) Balance(ctx context.Context, accountID string) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM wallet_ledger WHERE account_id = $1`

	var balance int64
	if err := r.q.QueryRowContext(ctx, query, accountID).Scan(&balance); err != nil {
		return 0, err
	}

	return domain.Money(balance), nil
}

// ListByAccount retrieves the entries of an account, newest first.
func (r *WalletRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.WalletLedgerEntry, error) {
	query := `
		SELECT id, account_id, trip_id, entry_type, amount_cents, created_at
		FROM wallet_ledger WHERE account_id = $1 ORDER BY created_at DESC
	`
	return r.queryEntries(ctx, query, accountID)
}

// ListByTrip retrieves the entries written for a trip settlement.
func (r *WalletRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.WalletLedgerEntry, error) {
	query := `
		SELECT id, account_id, trip_id, entry_type, amount_cents, created_at
		FROM wallet_ledger WHERE trip_id = $1 ORDER BY created_at
	`
	return r.queryEntries(ctx, query, tripID)
}

func (r *WalletRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.WalletLedgerEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WalletLedgerEntry
	for rows.Next() {
		var entry domain.WalletLedgerEntry
		var amount int64

		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.TripID,
			&entry.Type,
			&amount,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		entry.Amount = domain.Money(amount)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
