// Package postgres provides PostgreSQL implementations of the domain
// repositories and the engine's storage ports. It handles all database
// operations while maintaining transaction safety and proper error handling
// for the wallet ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/platform/persistence"
)

// AccountRepository implements account.Repository plus the engine's
// AccountStore port for PostgreSQL.
type AccountRepository struct {
	querier persistence.Querier // Can be a pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) *AccountRepository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls. The returned repository uses
// the provided transaction for all database operations.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account and assigns its id. If an account with the same
// email already exists, a database constraint error will be returned.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (name, email, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		acc.Name,
		acc.Email,
		acc.Balance,
		acc.CreatedAt,
		acc.UpdatedAt,
	).Scan(&acc.ID)
	if err != nil {
		r.logger.Error("Failed to create account", "email", acc.Email, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `
		SELECT id, name, email, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// GetByEmail retrieves an account by its email. Returns nil, nil when no
// account exists with the given email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `
		SELECT id, name, email, balance, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, email).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by email", "email", email, "error", err)
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &acc, nil
}

// GetForUpdate obtains a pessimistic lock on the account row and returns its
// current state. Only callable within an active transaction; the lock is held
// until the transaction completes.
func (r *AccountRepository) GetForUpdate(ctx context.Context, id int64) (*account.Account, error) {
	query := `
		SELECT id, name, email, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.Balance,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id, "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return &acc, nil
}

// UpdateBalance persists the new balance for a row locked earlier in the same
// transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, newBalance int64) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, newBalance, id)
	if err != nil {
		r.logger.Error("Failed to update account balance", "id", id, "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}
