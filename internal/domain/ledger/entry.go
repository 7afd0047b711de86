package ledger

import (
	"time"
)

// EntryKind defines the direction of a balance movement
type EntryKind string

const (
	EntryKindCredit EntryKind = "credit"
	EntryKindDebit  EntryKind = "debit"
)

// Entry is an immutable record of one balance-affecting movement. Entries are
// append-only: the engine never updates or deletes them, and the signed sum of
// an account's entries always equals its balance.
type Entry struct {
	ID            int64     `json:"id" bson:"entry_id"`
	AccountID     int64     `json:"account_id" bson:"account_id"`
	Amount        int64     `json:"amount" bson:"amount"` // Stored in cents/minor units, always positive
	Kind          EntryKind `json:"kind" bson:"kind"`
	Description   string    `json:"description" bson:"description"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Signed returns the entry amount with its sign applied: positive for credits,
// negative for debits.
func (e *Entry) Signed() int64 {
	if e.Kind == EntryKindDebit {
		return -e.Amount
	}
	return e.Amount
}
