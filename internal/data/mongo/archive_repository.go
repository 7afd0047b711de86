// Package mongo provides the MongoDB implementation of the wallet event
// archive. The archive is a read model fed by the wallet events topic; the
// PostgreSQL ledger stays the system of record.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/demo-credit-wallet/internal/domain/ledger"
)

const (
	// ArchiveCollectionName is the name of the event archive collection
	ArchiveCollectionName = "wallet_event_archive"
)

// ArchiveRepository implements the ledger.ArchiveRepository interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB event archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) ledger.ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores a recorded event after checking for duplicates.
// Returns ErrDuplicateEvent if an event with the same event ID exists, which
// makes redelivery from the events topic safe.
func (r *ArchiveRepository) Save(ctx context.Context, event *ledger.RecordedEvent) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetByEventID(ctx, event.EventID)
	if err != nil && !errors.Is(err, ledger.ErrEventNotFound{}) {
		r.logger.Error("Failed to check for existing archived event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archived event: %w", err)
	}

	if existing != nil {
		return ledger.ErrDuplicateEvent{EventID: event.EventID}
	}

	_, err = collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to archive event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to archive event: %w", err)
	}

	return nil
}

// GetByEventID retrieves an archived event by its event ID.
// Returns ErrEventNotFound if no event exists with the given ID.
func (r *ArchiveRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*ledger.RecordedEvent, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"event_id": eventID}
	var event ledger.RecordedEvent
	err := collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get archived event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived event: %w", err)
	}

	return &event, nil
}

// ListForAccount retrieves paginated archived events for an account.
// Results are sorted by recording time in descending order (newest first).
func (r *ArchiveRepository) ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*ledger.RecordedEvent, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"recorded_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list archived events",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to list archived events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*ledger.RecordedEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode archived events",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived events: %w", err)
	}

	return events, nil
}

// CountForAccount counts the total number of archived events for an account
func (r *ArchiveRepository) CountForAccount(ctx context.Context, accountID int64) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"account_id": accountID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archived events",
			"account_id", accountID,
			"error", err)
		return 0, fmt.Errorf("failed to count archived events: %w", err)
	}

	return count, nil
}
