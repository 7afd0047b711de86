package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/demo-credit-wallet/internal/domain/outbox"
	"github.com/demo-credit-wallet/internal/platform/messaging/producers"
)

// EventPublisher publishes outbox messages to the wallet events topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent writes the recorded event carried by the outbox message to the
// events topic, then marks the message processed. If the payload cannot be
// decoded the message is marked FAILED_TO_PUBLISH immediately; retrying a
// corrupt payload can never succeed.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetRecordedEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal recorded event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	// Keying by account id keeps one account's events on one partition
	key := strconv.FormatInt(message.AccountID, 10)
	if err := p.producer.Publish(ctx, key, event); err != nil {
		return fmt.Errorf("failed to publish event %s for outbox %d: %w", message.EventID, message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", message.EventID.String(), "error", err,
		)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", message.EventID, message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED", "outbox_id", message.ID, "event_id", message.EventID.String())
	return nil
}
