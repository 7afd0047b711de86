package engine

import (
	"context"

	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/domain/outbox"
)

// AccountStore is the engine's write-side view of account storage. Both
// methods are only callable within an active atomic unit; GetForUpdate takes
// an exclusive lock on the account row for the duration of the unit.
type AccountStore interface {
	GetForUpdate(ctx context.Context, id int64) (*account.Account, error)
	UpdateBalance(ctx context.Context, id int64, newBalance int64) error
}

// LedgerLog is the engine's view of the append-only ledger within an atomic
// unit. Append assigns and returns the entry's id; entries are never updated
// or deleted.
type LedgerLog interface {
	Append(ctx context.Context, entry *ledger.Entry) (int64, error)
	// SumForAccount returns the signed sum of the account's entries. Called
	// under the account's lock it gives a consistent reconciliation view.
	SumForAccount(ctx context.Context, accountID int64) (int64, error)
}

// OutboxStore records events for reliable publishing, atomically with the
// ledger appends they describe.
type OutboxStore interface {
	Create(ctx context.Context, message *outbox.Message) error
}

// Stores bundles the transactional views handed to a unit of work callback
type Stores struct {
	Accounts AccountStore
	Ledger   LedgerLog
	Outbox   OutboxStore
}

// UnitOfWork executes fn inside one atomic unit: every store operation either
// commits together or rolls back together. Row locks acquired inside the unit
// are held until it completes.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// AccountReader provides non-locking account reads outside atomic units
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*account.Account, error)
}
