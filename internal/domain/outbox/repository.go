package outbox

import (
	"context"
	"strconv"
)

// Repository manages outbox message persistence outside the engine's atomic
// units; the poller uses it to drain pending messages in FIFO order.
type Repository interface {
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	IncrementAttempts(ctx context.Context, id int64) error
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}
