package outbox_poller

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/demo-credit-wallet/internal/config"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/domain/outbox"
)

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testOutboxMessage(t *testing.T) *outbox.Message {
	t.Helper()
	entry := &ledger.Entry{
		ID:          7,
		AccountID:   42,
		Amount:      5000,
		Kind:        ledger.EntryKindCredit,
		Description: "Wallet funded",
		CreatedAt:   time.Now().UTC(),
	}
	msg, err := outbox.NewMessage(ledger.NewRecordedEvent(entry, 5000))
	require.NoError(t, err)
	msg.ID = 1
	return msg
}

func testPollerConfig() *config.OutboxConfig {
	return &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        50,
		MaxRetryAttempts: 3,
	}
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	msg := testOutboxMessage(t)

	tests := []struct {
		name       string
		setupMocks func(repo *MockOutboxRepository, pub *MockEventPublisher)
	}{
		{
			name: "no pending messages",
			setupMocks: func(repo *MockOutboxRepository, pub *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 50).Return([]*outbox.Message{}, nil)
			},
		},
		{
			name: "message published",
			setupMocks: func(repo *MockOutboxRepository, pub *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 50).Return([]*outbox.Message{msg}, nil)
				pub.On("PublishEvent", mock.Anything, msg).Return(nil)
			},
		},
		{
			name: "publish failure increments attempts",
			setupMocks: func(repo *MockOutboxRepository, pub *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 50).Return([]*outbox.Message{msg}, nil)
				pub.On("PublishEvent", mock.Anything, msg).Return(errors.New("broker down"))
				repo.On("IncrementAttempts", mock.Anything, msg.ID).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOutboxRepository{}
			pub := &MockEventPublisher{}
			tt.setupMocks(repo, pub)

			poller := NewPoller(testPollerConfig(), repo, pub, slog.Default())
			err := poller.processPendingMessages(context.Background())

			assert.NoError(t, err)
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestPoller_MaxRetriesMarksFailed(t *testing.T) {
	msg := testOutboxMessage(t)
	msg.Attempts = 2 // One more failure reaches the limit of 3

	repo := &MockOutboxRepository{}
	pub := &MockEventPublisher{}
	repo.On("GetPending", mock.Anything, 50).Return([]*outbox.Message{msg}, nil)
	pub.On("PublishEvent", mock.Anything, msg).Return(errors.New("broker down"))
	repo.On("IncrementAttempts", mock.Anything, msg.ID).Return(nil)
	repo.On("UpdateStatus", mock.Anything, msg.ID, outbox.StatusFailedToPublish).Return(nil)

	poller := NewPoller(testPollerConfig(), repo, pub, slog.Default())
	err := poller.processPendingMessages(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestPoller_GetPendingError(t *testing.T) {
	repo := &MockOutboxRepository{}
	pub := &MockEventPublisher{}
	repo.On("GetPending", mock.Anything, 50).Return(nil, errors.New("db error"))

	poller := NewPoller(testPollerConfig(), repo, pub, slog.Default())
	err := poller.processPendingMessages(context.Background())

	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestPoller_StartStopsOnContextCancel(t *testing.T) {
	repo := &MockOutboxRepository{}
	pub := &MockEventPublisher{}
	repo.On("GetPending", mock.Anything, 50).Return([]*outbox.Message{}, nil).Maybe()

	poller := NewPoller(testPollerConfig(), repo, pub, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}

func TestEventPublisher_PublishEvent(t *testing.T) {
	msg := testOutboxMessage(t)

	t.Run("publishes and marks processed", func(t *testing.T) {
		repo := &MockOutboxRepository{}
		producer := &MockMessagePublisher{}
		producer.On("Publish", mock.Anything, "42", mock.Anything).Return(nil)
		repo.On("UpdateStatus", mock.Anything, msg.ID, outbox.StatusProcessed).Return(nil)

		publisher := NewEventPublisher(repo, producer, slog.Default())
		err := publisher.PublishEvent(context.Background(), msg)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
		producer.AssertExpectations(t)
	})

	t.Run("publish failure leaves message pending", func(t *testing.T) {
		repo := &MockOutboxRepository{}
		producer := &MockMessagePublisher{}
		producer.On("Publish", mock.Anything, "42", mock.Anything).Return(errors.New("broker down"))

		publisher := NewEventPublisher(repo, producer, slog.Default())
		err := publisher.PublishEvent(context.Background(), msg)

		assert.Error(t, err)
		repo.AssertExpectations(t)
		producer.AssertExpectations(t)
	})

	t.Run("corrupt payload marked failed", func(t *testing.T) {
		corrupt := &outbox.Message{
			ID:      2,
			EventID: uuid.New(),
			Payload: []byte("not json"),
			Status:  outbox.StatusPending,
		}

		repo := &MockOutboxRepository{}
		producer := &MockMessagePublisher{}
		repo.On("UpdateStatus", mock.Anything, corrupt.ID, outbox.StatusFailedToPublish).Return(nil)

		publisher := NewEventPublisher(repo, producer, slog.Default())
		err := publisher.PublishEvent(context.Background(), corrupt)

		assert.Error(t, err)
		repo.AssertExpectations(t)
	})
}
