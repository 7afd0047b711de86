package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/demo-credit-wallet/internal/domain/ledger"
)

// Status defines message publishing states
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a recorded ledger event for reliable publishing. It is
// written in the same atomic unit as the ledger entry it describes.
type Message struct {
	ID            int64           `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	AccountID     int64           `json:"account_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *ledger.RecordedEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   event.EventID,
		AccountID: event.AccountID,
		Payload:   payload,
		Status:    StatusPending,
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GetRecordedEvent extracts the ledger event from the payload
func (m *Message) GetRecordedEvent() (*ledger.RecordedEvent, error) {
	var event ledger.RecordedEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
