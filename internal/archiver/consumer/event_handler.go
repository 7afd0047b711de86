// Package consumer handles wallet event messages arriving from Kafka and
// hands them to the archiving service.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/demo-credit-wallet/internal/archiver/service"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/platform/messaging/producers"
)

// WalletEventHandler handles incoming wallet event messages from Kafka
type WalletEventHandler struct {
	archivingService service.ArchivingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewWalletEventHandler creates a new handler
func NewWalletEventHandler(
	logger *slog.Logger,
	archivingService service.ArchivingService,
	producer producers.DeadLetterPublisher,
) *WalletEventHandler {
	return &WalletEventHandler{
		archivingService: archivingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes one Kafka message. Unparseable payloads go to the
// DLQ; archive failures are returned so the offset stays uncommitted and the
// event is redelivered.
func (h *WalletEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event ledger.RecordedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal wallet event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received wallet event for archiving",
		"event_id", event.EventID.String(),
		"account_id", event.AccountID,
		"kind", string(event.Kind),
		"amount", event.Amount,
	)

	if err := h.archivingService.ArchiveEvent(ctx, &event); err != nil {
		logger.Error("Failed to archive wallet event",
			"event_id", event.EventID.String(),
			"account_id", event.AccountID,
			"error", err,
		)
		return fmt.Errorf("archiving event %s failed: %w", event.EventID.String(), err)
	}

	return nil
}
