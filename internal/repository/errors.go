package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateLedgerEntry is returned when a ledger entry already
	// exists for the same (trip, account) pair.
	ErrDuplicateLedgerEntry = errors.New("ledger entry already exists for trip and account")
)
