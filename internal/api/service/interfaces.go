package service

import (
	"context"

	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/engine"
)

// LedgerService exposes the wallet operations served by the HTTP layer.
// It is satisfied by *engine.Engine.
type LedgerService interface {
	Fund(ctx context.Context, accountID int64, amount int64) (int64, error)
	Withdraw(ctx context.Context, accountID int64, amount int64) (int64, error)
	Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount int64) (*engine.TransferResult, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)
	ListTransactions(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.Entry, int64, error)
	Reconcile(ctx context.Context, accountID int64) (*engine.ReconciliationReport, error)
}

// UserService handles user onboarding
type UserService interface {
	CreateUser(ctx context.Context, name, email string) (*account.Account, error)
	GetUser(ctx context.Context, id int64) (*account.Account, error)
}
