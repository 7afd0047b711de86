package ledger

import (
	"time"

	"github.com/google/uuid"
)

// RecordedEvent is the message emitted for every committed ledger entry. It is
// written to the transactional outbox in the same atomic unit as the entry and
// later published to the wallet events topic.
type RecordedEvent struct {
	EventID       uuid.UUID `json:"event_id" bson:"event_id"`
	EntryID       int64     `json:"entry_id" bson:"entry_id"`
	AccountID     int64     `json:"account_id" bson:"account_id"`
	Kind          EntryKind `json:"kind" bson:"kind"`
	Amount        int64     `json:"amount" bson:"amount"` // Stored in cents/minor units
	Description   string    `json:"description" bson:"description"`
	BalanceAfter  int64     `json:"balance_after" bson:"balance_after"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	RecordedAt    time.Time `json:"recorded_at" bson:"recorded_at"`
}

// NewRecordedEvent builds the event for a committed entry and the balance the
// account was left with.
func NewRecordedEvent(entry *Entry, balanceAfter int64) *RecordedEvent {
	return &RecordedEvent{
		EventID:       uuid.New(),
		EntryID:       entry.ID,
		AccountID:     entry.AccountID,
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		Description:   entry.Description,
		BalanceAfter:  balanceAfter,
		CorrelationID: entry.CorrelationID,
		RecordedAt:    entry.CreatedAt,
	}
}
