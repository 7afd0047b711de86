package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/demo-credit-wallet/internal/engine"
	"github.com/demo-credit-wallet/internal/platform/persistence"
)

// UnitOfWork implements engine.UnitOfWork on top of a PostgreSQL transaction.
// Every callback runs between BEGIN and COMMIT; any error (or panic) rolls
// the whole unit back, so balance updates, ledger appends and outbox writes
// are all-or-nothing.
type UnitOfWork struct {
	db       *persistence.PostgresDB
	accounts *AccountRepository
	ledger   *LedgerRepository
	outbox   *OutboxRepository
}

var _ engine.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates the transactional entry point used by the ledger engine
func NewUnitOfWork(
	db *persistence.PostgresDB,
	accounts *AccountRepository,
	ledgerRepo *LedgerRepository,
	outboxRepo *OutboxRepository,
) *UnitOfWork {
	return &UnitOfWork{
		db:       db,
		accounts: accounts,
		ledger:   ledgerRepo,
		outbox:   outboxRepo,
	}
}

// Execute runs fn inside a single database transaction, handing it
// transaction-scoped views of the stores.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, s engine.Stores) error) error {
	return u.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, engine.Stores{
			Accounts: u.accounts.WithTx(tx),
			Ledger:   u.ledger.WithTx(tx),
			Outbox:   u.outbox.WithTx(tx),
		})
	})
}
