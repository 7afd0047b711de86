package service

import (
	"context"

	"github.com/demo-credit-wallet/internal/domain/ledger"
)

// ArchivingService defines the interface for archiving recorded ledger events
type ArchivingService interface {
	ArchiveEvent(ctx context.Context, event *ledger.RecordedEvent) error
}
