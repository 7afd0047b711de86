package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/platform/persistence"
)

// LedgerRepository implements ledger.Repository plus the engine's LedgerLog
// port for PostgreSQL. The ledger_entries table is append-only: no update or
// delete statements exist here.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) *LedgerRepository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so appends commit atomically
// with the balance updates they describe.
func (r *LedgerRepository) WithTx(tx pgx.Tx) *LedgerRepository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append stores a new ledger entry and returns its assigned id
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) (int64, error) {
	query := `
		INSERT INTO ledger_entries (account_id, amount, kind, description, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.querier.QueryRow(ctx, query,
		entry.AccountID,
		entry.Amount,
		entry.Kind,
		entry.Description,
		entry.CorrelationID,
		entry.CreatedAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to append ledger entry", "account_id", entry.AccountID, "error", err)
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return id, nil
}

// ListForAccount retrieves ledger entries for an account, newest first
func (r *LedgerRepository) ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*ledger.Entry, error) {
	query := `
		SELECT id, account_id, amount, kind, description, correlation_id, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Amount,
			&entry.Kind,
			&entry.Description,
			&entry.CorrelationID,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

// CountForAccount counts the total number of ledger entries for an account
func (r *LedgerRepository) CountForAccount(ctx context.Context, accountID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

// SumForAccount returns the signed sum of the account's entries: credits
// minus debits. Used for reconciliation against the account balance.
func (r *LedgerRepository) SumForAccount(ctx context.Context, accountID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN kind = 'credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var sum int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		r.logger.Error("Failed to sum ledger entries", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	return sum, nil
}
