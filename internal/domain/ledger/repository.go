package ledger

import (
	"context"
	"strconv"
)

// Repository provides read access to the ledger log outside the engine's
// atomic units. Appends happen only through the engine's LedgerLog port.
type Repository interface {
	// ListForAccount returns entries for an account, newest first
	ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*Entry, error)
	CountForAccount(ctx context.Context, accountID int64) (int64, error)
	// SumForAccount returns the signed sum of all entries for an account
	// (credits minus debits), used for reconciliation against the balance
	SumForAccount(ctx context.Context, accountID int64) (int64, error)
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	EntryID int64
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + strconv.FormatInt(e.EntryID, 10)
}
