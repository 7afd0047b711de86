package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demo-credit-wallet/internal/domain/outbox"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	message := &outbox.Message{
		EventID:   uuid.New(),
		AccountID: 1,
		Payload:   json.RawMessage(`{"entry_id":1}`),
		Status:    outbox.StatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO wallet_outbox \(event_id, account_id, payload, status, attempts, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)
		RETURNING id
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(message.EventID, message.AccountID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))

		err := repo.Create(ctx, message)
		assert.NoError(t, err)
		assert.Equal(t, int64(9), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("insert db error")
		mock.ExpectQuery(query).
			WithArgs(message.EventID, message.AccountID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, message)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create outbox message")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	now := time.Now().UTC()

	query := `
		SELECT id, event_id, account_id, payload, status, attempts, created_at, last_attempt_at
		FROM wallet_outbox
		WHERE status = \$1
		ORDER BY created_at ASC
		LIMIT \$2
	`

	t.Run("success", func(t *testing.T) {
		firstEvent := uuid.New()
		secondEvent := uuid.New()
		rows := pgxmock.NewRows([]string{"id", "event_id", "account_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(1), firstEvent, int64(1), json.RawMessage(`{}`), outbox.StatusPending, 0, now.Add(-time.Minute), nil).
			AddRow(int64(2), secondEvent, int64(2), json.RawMessage(`{}`), outbox.StatusPending, 1, now, &now)
		mock.ExpectQuery(query).WithArgs(outbox.StatusPending, 10).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		assert.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, firstEvent, messages[0].EventID)
		assert.Equal(t, 1, messages[1].Attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "event_id", "account_id", "payload", "status", "attempts", "created_at", "last_attempt_at"})
		mock.ExpectQuery(query).WithArgs(outbox.StatusPending, 10).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		assert.NoError(t, err)
		assert.Empty(t, messages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("query db error")
		mock.ExpectQuery(query).WithArgs(outbox.StatusPending, 10).WillReturnError(dbErr)

		messages, err := repo.GetPending(ctx, 10)
		assert.Error(t, err)
		assert.Nil(t, messages)
		assert.Contains(t, err.Error(), "failed to get pending outbox messages")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		UPDATE wallet_outbox
		SET status = \$1, last_attempt_at = \$2
		WHERE id = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(outbox.StatusProcessed, pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 1, outbox.StatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(outbox.StatusProcessed, pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 1, outbox.StatusProcessed)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, int64(1), notFoundErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("update db error")
		mock.ExpectExec(query).
			WithArgs(outbox.StatusFailedToPublish, pgxmock.AnyArg(), int64(1)).
			WillReturnError(dbErr)

		err := repo.UpdateStatus(ctx, 1, outbox.StatusFailedToPublish)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update outbox message status")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		UPDATE wallet_outbox
		SET attempts = attempts \+ 1, last_attempt_at = \$1
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementAttempts(ctx, 1)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementAttempts(ctx, 1)
		assert.Error(t, err)
		var notFoundErr outbox.ErrMessageNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
