package handler

import (
	"github.com/shopspring/decimal"
)

// FundRequest represents a request to fund a wallet
type FundRequest struct {
	AccountID int64           `json:"account_id" binding:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
}

// WithdrawRequest represents a request to withdraw from a wallet
type WithdrawRequest struct {
	AccountID int64           `json:"account_id" binding:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
}

// TransferRequest represents a request to move funds between wallets
type TransferRequest struct {
	FromAccountID int64           `json:"from_account_id" binding:"required,gt=0"`
	ToAccountID   int64           `json:"to_account_id" binding:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount"`
}

// BalanceResponse represents a wallet balance in API responses. Amounts are
// rendered as 2-decimal strings.
type BalanceResponse struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

// MutationResponse represents the outcome of a fund or withdraw operation
type MutationResponse struct {
	Message   string `json:"message"`
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

// TransferResponse represents the outcome of a transfer
type TransferResponse struct {
	Message         string `json:"message"`
	FromAccountID   int64  `json:"from_account_id"`
	ToAccountID     int64  `json:"to_account_id"`
	SenderBalance   string `json:"sender_balance"`
	ReceiverBalance string `json:"receiver_balance"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// ReconciliationResponse represents a successful reconciliation report
type ReconciliationResponse struct {
	AccountID  int64  `json:"account_id"`
	Balance    string `json:"balance"`
	LedgerSum  string `json:"ledger_sum"`
	Consistent bool   `json:"consistent"`
}

// CreateUserRequest represents a request to onboard a new user
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
