package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/demo-credit-wallet/internal/config"
)

// WalletEventProducer publishes recorded ledger events to the wallet events
// topic. Writes are synchronous with full acks: the outbox poller must only
// mark a message processed after the broker confirmed the write.
type WalletEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewWalletEventProducer creates the producer and ensures the topic exists
func NewWalletEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*WalletEventProducer, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for wallet event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.EventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &WalletEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventsTopic,
	}, nil
}

// Publish marshals value and writes it to the events topic under key. The key
// is the account id, so events for one account stay on one partition and are
// consumed in order.
func (p *WalletEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish wallet event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish wallet event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published wallet event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *WalletEventProducer) Close() error {
	p.logger.Info("Closing wallet event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
