package engine

import (
	"errors"
	"fmt"
)

// ErrSameAccount indicates a transfer where source equals destination
var ErrSameAccount = errors.New("cannot transfer to the same account")

// ErrReconciliationMismatch indicates that the signed sum of an account's
// ledger entries does not equal its balance. This is an internal consistency
// failure and is never masked.
type ErrReconciliationMismatch struct {
	AccountID int64
	Balance   int64
	LedgerSum int64
}

func (e ErrReconciliationMismatch) Error() string {
	return fmt.Sprintf("ledger reconciliation mismatch for account %d: balance=%d ledger_sum=%d",
		e.AccountID, e.Balance, e.LedgerSum)
}
