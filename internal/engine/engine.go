// Package engine implements the ledger transaction engine: the only component
// that mutates balances and appends ledger entries. Every operation runs in
// exactly one atomic unit spanning the account mutation(s), the ledger
// append(s) and the outbox write, so a failure at any step leaves no partial
// state behind.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/domain/money"
	"github.com/demo-credit-wallet/internal/domain/outbox"
	"github.com/demo-credit-wallet/internal/logger"
)

// Ledger entry descriptions
const (
	DescriptionFunded       = "Wallet funded"
	DescriptionWithdrawal   = "Wallet withdrawal"
	descriptionTransferTo   = "Transfer to account %d"
	descriptionTransferFrom = "Transfer from account %d"
)

// TransferResult holds both post-transfer balances in minor units
type TransferResult struct {
	SenderBalance   int64
	ReceiverBalance int64
}

// ReconciliationReport compares an account's balance with the signed sum of
// its ledger entries.
type ReconciliationReport struct {
	AccountID int64
	Balance   int64
	LedgerSum int64
}

// Engine orchestrates atomic read-modify-write sequences against the account
// store and ledger log.
type Engine struct {
	uow      UnitOfWork
	accounts AccountReader
	entries  ledger.Repository
	logger   *slog.Logger
}

func New(uow UnitOfWork, accounts AccountReader, entries ledger.Repository, log *slog.Logger) *Engine {
	return &Engine{
		uow:      uow,
		accounts: accounts,
		entries:  entries,
		logger:   log,
	}
}

// Fund credits amount (minor units) to the account and returns the new
// balance. The balance update and the credit entry commit atomically.
func (e *Engine) Fund(ctx context.Context, accountID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, money.ErrInvalidAmount
	}

	log := logger.WithCorrelationID(ctx, e.logger)

	var newBalance int64
	err := e.uow.Execute(ctx, func(ctx context.Context, s Stores) error {
		acc, err := s.Accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		if err := acc.Credit(amount); err != nil {
			return err
		}
		if err := s.Accounts.UpdateBalance(ctx, accountID, acc.Balance); err != nil {
			return err
		}

		if err := e.record(ctx, s, acc, amount, ledger.EntryKindCredit, DescriptionFunded); err != nil {
			return err
		}

		newBalance = acc.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("wallet funded", "account_id", accountID, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

// Withdraw debits amount (minor units) from the account and returns the new
// balance. Sufficiency is checked under the account's lock, inside the unit,
// so two concurrent withdrawals can never both spend the same funds.
func (e *Engine) Withdraw(ctx context.Context, accountID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, money.ErrInvalidAmount
	}

	log := logger.WithCorrelationID(ctx, e.logger)

	var newBalance int64
	err := e.uow.Execute(ctx, func(ctx context.Context, s Stores) error {
		acc, err := s.Accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		if err := acc.Debit(amount); err != nil {
			return err
		}
		if err := s.Accounts.UpdateBalance(ctx, accountID, acc.Balance); err != nil {
			return err
		}

		if err := e.record(ctx, s, acc, amount, ledger.EntryKindDebit, DescriptionWithdrawal); err != nil {
			return err
		}

		newBalance = acc.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("wallet withdrawal", "account_id", accountID, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

// Transfer moves amount from one account to another inside a single atomic
// unit: both balance updates and both ledger entries (debit on the sender,
// credit on the receiver) commit or roll back together. Locks are always
// acquired in ascending account-id order so two opposite-direction transfers
// between the same pair cannot deadlock.
func (e *Engine) Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, money.ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, ErrSameAccount
	}

	log := logger.WithCorrelationID(ctx, e.logger)

	var result TransferResult
	err := e.uow.Execute(ctx, func(ctx context.Context, s Stores) error {
		// Global lock order: ascending account id
		firstID, secondID := fromAccountID, toAccountID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		first, err := s.Accounts.GetForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := s.Accounts.GetForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		sender, receiver := first, second
		if sender.ID != fromAccountID {
			sender, receiver = second, first
		}

		if err := sender.Debit(amount); err != nil {
			return err
		}
		if err := receiver.Credit(amount); err != nil {
			return err
		}

		if err := s.Accounts.UpdateBalance(ctx, sender.ID, sender.Balance); err != nil {
			return err
		}
		if err := s.Accounts.UpdateBalance(ctx, receiver.ID, receiver.Balance); err != nil {
			return err
		}

		debitDesc := fmt.Sprintf(descriptionTransferTo, receiver.ID)
		if err := e.record(ctx, s, sender, amount, ledger.EntryKindDebit, debitDesc); err != nil {
			return err
		}
		creditDesc := fmt.Sprintf(descriptionTransferFrom, sender.ID)
		if err := e.record(ctx, s, receiver, amount, ledger.EntryKindCredit, creditDesc); err != nil {
			return err
		}

		result = TransferResult{
			SenderBalance:   sender.Balance,
			ReceiverBalance: receiver.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("wallet transfer",
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		"amount", amount,
		"sender_balance", result.SenderBalance,
		"receiver_balance", result.ReceiverBalance,
	)
	return &result, nil
}

// GetBalance returns the account's current balance in minor units
func (e *Engine) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	acc, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// ListTransactions returns the account's ledger entries, newest first, plus
// the total entry count for pagination.
func (e *Engine) ListTransactions(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.Entry, int64, error) {
	if _, err := e.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	entries, err := e.entries.ListForAccount(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := e.entries.CountForAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Reconcile verifies that the signed sum of the account's ledger entries
// equals its balance. The check runs under the account's lock so in-flight
// units cannot produce a false mismatch. A mismatch is returned as
// ErrReconciliationMismatch and must be surfaced, never masked.
func (e *Engine) Reconcile(ctx context.Context, accountID int64) (*ReconciliationReport, error) {
	var report *ReconciliationReport
	err := e.uow.Execute(ctx, func(ctx context.Context, s Stores) error {
		acc, err := s.Accounts.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		sum, err := s.Ledger.SumForAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if sum != acc.Balance {
			return ErrReconciliationMismatch{
				AccountID: accountID,
				Balance:   acc.Balance,
				LedgerSum: sum,
			}
		}

		report = &ReconciliationReport{
			AccountID: accountID,
			Balance:   acc.Balance,
			LedgerSum: sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// record appends a ledger entry and its outbox event for an account whose
// balance has already been updated in this unit.
func (e *Engine) record(ctx context.Context, s Stores, acc *account.Account, amount int64, kind ledger.EntryKind, description string) error {
	entry := &ledger.Entry{
		AccountID:     acc.ID,
		Amount:        amount,
		Kind:          kind,
		Description:   description,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		CreatedAt:     time.Now().UTC(),
	}

	id, err := s.Ledger.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	entry.ID = id

	message, err := outbox.NewMessage(ledger.NewRecordedEvent(entry, acc.Balance))
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	if err := s.Outbox.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	return nil
}
