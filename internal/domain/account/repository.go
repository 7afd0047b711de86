package account

import (
	"context"
	"strconv"
)

// Repository defines account persistence operations used outside the ledger
// engine's atomic units (creation and plain reads).
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID int64
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + strconv.FormatInt(e.AccountID, 10)
}

// Is implements the errors.Is interface for ErrAccountNotFound.
// A target with a zero AccountID matches any ErrAccountNotFound.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == 0 {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateEmail indicates email uniqueness violation
type ErrDuplicateEmail struct {
	Email string
}

func (e ErrDuplicateEmail) Error() string {
	return "account with email already exists: " + e.Email
}
