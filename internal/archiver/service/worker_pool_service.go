package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/demo-credit-wallet/internal/domain/ledger"
)

// WorkerPoolArchivingService wraps an ArchivingService with a bounded worker
// pool so a burst of events cannot overwhelm the archive store.
type WorkerPoolArchivingService struct {
	baseService ArchivingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Protects access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolArchivingService(
	baseService ArchivingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolArchivingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolArchivingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ArchiveEvent submits the event to the worker pool and waits for the result
func (s *WorkerPoolArchivingService) ArchiveEvent(ctx context.Context, event *ledger.RecordedEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Submitting event to worker pool",
		"event_id", event.EventID.String(),
		"account_id", event.AccountID,
	)

	resultChan := make(chan error, 1)

	eventID := event.EventID.String()
	s.mu.Lock()
	s.results[eventID] = resultChan
	s.mu.Unlock()

	// Copy the event to avoid data races with the caller
	eventCopy := *event

	err := s.pool.Submit(func() {
		err := s.baseService.ArchiveEvent(ctx, &eventCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, eventID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, eventID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit event to worker pool",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool
func (s *WorkerPoolArchivingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool
func (s *WorkerPoolArchivingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool
func (s *WorkerPoolArchivingService) Capacity() int {
	return s.pool.Cap()
}
