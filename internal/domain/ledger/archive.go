package ledger

import (
	"context"

	"github.com/google/uuid"
)

// ArchiveRepository stores recorded events in the read-model archive fed by
// the wallet events topic. Writes must be duplicate-safe on the event id
// because the outbox pipeline delivers at least once.
type ArchiveRepository interface {
	Save(ctx context.Context, event *RecordedEvent) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*RecordedEvent, error)
	// ListForAccount returns archived events for an account, newest first
	ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*RecordedEvent, error)
	CountForAccount(ctx context.Context, accountID int64) (int64, error)
}

// ErrDuplicateEvent indicates the event was already archived
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "event already archived: " + e.EventID.String()
}

// Is allows matching against ErrDuplicateEvent regardless of the event id
func (e ErrDuplicateEvent) Is(target error) bool {
	_, ok := target.(ErrDuplicateEvent)
	return ok
}

// ErrEventNotFound indicates a missing archived event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "archived event not found: " + e.EventID.String()
}

// Is allows matching against ErrEventNotFound regardless of the event id
func (e ErrEventNotFound) Is(target error) bool {
	_, ok := target.(ErrEventNotFound)
	return ok
}
