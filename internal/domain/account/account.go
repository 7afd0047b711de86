package account

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Account represents a user wallet. The balance is mutated exclusively by the
// ledger engine inside an atomic unit; it never goes negative.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"` // Stored in cents/minor units
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates a new account with a zero balance. The ID is assigned by
// the store on creation.
func NewAccount(name string, email string) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmptyEmail
	}

	now := time.Now().UTC()
	return &Account{
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Credit adds the specified amount to the account balance
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}

	a.Balance += amount
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts the specified amount from the account balance
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// CanDebit checks if the account has sufficient funds for a debit
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}
