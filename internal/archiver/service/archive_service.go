// Package service archives recorded ledger events consumed from the wallet
// events topic into the MongoDB read model.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/demo-credit-wallet/internal/domain/ledger"
)

// ArchiveService writes recorded events to the archive repository
type ArchiveService struct {
	archive ledger.ArchiveRepository
	logger  *slog.Logger
}

func NewArchiveService(logger *slog.Logger, archive ledger.ArchiveRepository) *ArchiveService {
	return &ArchiveService{
		archive: archive,
		logger:  logger,
	}
}

// ArchiveEvent stores the event in the archive. A duplicate event id is
// treated as success: the events topic delivers at least once, so redelivery
// of an already archived event is expected.
func (s *ArchiveService) ArchiveEvent(ctx context.Context, event *ledger.RecordedEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	err := s.archive.Save(ctx, event)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEvent{}) {
			logger.Info("Event already archived, skipping",
				"event_id", event.EventID.String(),
				"account_id", event.AccountID,
			)
			return nil
		}
		logger.Error("Failed to archive event",
			"event_id", event.EventID.String(),
			"account_id", event.AccountID,
			"error", err,
		)
		return fmt.Errorf("failed to archive event %s: %w", event.EventID, err)
	}

	logger.Info("Archived event",
		"event_id", event.EventID.String(),
		"account_id", event.AccountID,
		"kind", string(event.Kind),
		"amount", event.Amount,
	)
	return nil
}
