package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/demo-credit-wallet/internal/domain/ledger"
)

type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Save(ctx context.Context, event *ledger.RecordedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockArchiveRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*ledger.RecordedEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.RecordedEvent), args.Error(1)
}

func (m *MockArchiveRepository) ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*ledger.RecordedEvent, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.RecordedEvent), args.Error(1)
}

func (m *MockArchiveRepository) CountForAccount(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func testEvent() *ledger.RecordedEvent {
	return &ledger.RecordedEvent{
		EventID:      uuid.New(),
		EntryID:      7,
		AccountID:    42,
		Kind:         ledger.EntryKindCredit,
		Amount:       5000,
		Description:  "Wallet funded",
		BalanceAfter: 5000,
		RecordedAt:   time.Now().UTC(),
	}
}

func TestArchiveService_ArchiveEvent(t *testing.T) {
	event := testEvent()

	tests := []struct {
		name        string
		saveErr     error
		expectError bool
	}{
		{
			name:        "archives event",
			saveErr:     nil,
			expectError: false,
		},
		{
			name:        "duplicate event is not an error",
			saveErr:     ledger.ErrDuplicateEvent{EventID: event.EventID},
			expectError: false,
		},
		{
			name:        "store error propagates",
			saveErr:     errors.New("mongo down"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockArchiveRepository{}
			repo.On("Save", mock.Anything, event).Return(tt.saveErr)

			svc := NewArchiveService(slog.Default(), repo)
			err := svc.ArchiveEvent(context.Background(), event)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

type MockArchivingService struct {
	mock.Mock
}

func (m *MockArchivingService) ArchiveEvent(ctx context.Context, event *ledger.RecordedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestWorkerPoolArchivingService_ArchiveEvent(t *testing.T) {
	event := testEvent()

	base := &MockArchivingService{}
	base.On("ArchiveEvent", mock.Anything, mock.Anything).Return(nil)

	svc, err := NewWorkerPoolArchivingService(base, WorkerPoolConfig{Size: 2}, slog.Default())
	require.NoError(t, err)
	defer svc.Shutdown()

	err = svc.ArchiveEvent(context.Background(), event)

	assert.NoError(t, err)
	assert.Equal(t, 2, svc.Capacity())
	base.AssertExpectations(t)
}

func TestWorkerPoolArchivingService_PropagatesError(t *testing.T) {
	event := testEvent()
	boom := errors.New("mongo down")

	base := &MockArchivingService{}
	base.On("ArchiveEvent", mock.Anything, mock.Anything).Return(boom)

	svc, err := NewWorkerPoolArchivingService(base, WorkerPoolConfig{Size: 2}, slog.Default())
	require.NoError(t, err)
	defer svc.Shutdown()

	err = svc.ArchiveEvent(context.Background(), event)

	assert.ErrorIs(t, err, boom)
	base.AssertExpectations(t)
}

func TestWorkerPoolArchivingService_ConcurrentSubmissions(t *testing.T) {
	base := &MockArchivingService{}
	base.On("ArchiveEvent", mock.Anything, mock.Anything).Return(nil)

	svc, err := NewWorkerPoolArchivingService(base, WorkerPoolConfig{Size: 4}, slog.Default())
	require.NoError(t, err)
	defer svc.Shutdown()

	const events = 20
	var wg sync.WaitGroup
	wg.Add(events)
	for i := 0; i < events; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.ArchiveEvent(context.Background(), testEvent()))
		}()
	}
	wg.Wait()
}
