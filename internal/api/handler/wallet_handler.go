package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demo-credit-wallet/internal/api/middleware"
	"github.com/demo-credit-wallet/internal/api/service"
	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/domain/money"
	"github.com/demo-credit-wallet/internal/engine"
)

// WalletHandler handles HTTP requests for wallet operations
type WalletHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, ledgerService service.LedgerService) *WalletHandler {
	return &WalletHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Fund credits an amount to the caller's wallet
func (h *WalletHandler) Fund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.callerOwnsAccount(c, req.AccountID) {
		return
	}

	amount, err := money.MinorUnits(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: must be positive with at most 2 decimal places")
		return
	}

	balance, err := h.ledgerService.Fund(c.Request.Context(), req.AccountID, amount)
	if err != nil {
		h.respondOperationError(c, err, req.AccountID, 0)
		return
	}

	RespondOK(c, MutationResponse{
		Message:   "Wallet funded successfully",
		AccountID: req.AccountID,
		Balance:   money.Format(balance),
	})
}

// Withdraw debits an amount from the caller's wallet
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.callerOwnsAccount(c, req.AccountID) {
		return
	}

	amount, err := money.MinorUnits(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: must be positive with at most 2 decimal places")
		return
	}

	balance, err := h.ledgerService.Withdraw(c.Request.Context(), req.AccountID, amount)
	if err != nil {
		h.respondOperationError(c, err, req.AccountID, 0)
		return
	}

	RespondOK(c, MutationResponse{
		Message:   "Withdrawal successful",
		AccountID: req.AccountID,
		Balance:   money.Format(balance),
	})
}

// Transfer moves an amount from the caller's wallet to another wallet
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.callerOwnsAccount(c, req.FromAccountID) {
		return
	}

	amount, err := money.MinorUnits(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: must be positive with at most 2 decimal places")
		return
	}

	result, err := h.ledgerService.Transfer(c.Request.Context(), req.FromAccountID, req.ToAccountID, amount)
	if err != nil {
		h.respondOperationError(c, err, req.FromAccountID, req.ToAccountID)
		return
	}

	RespondOK(c, TransferResponse{
		Message:         "Transfer successful",
		FromAccountID:   req.FromAccountID,
		ToAccountID:     req.ToAccountID,
		SenderBalance:   money.Format(result.SenderBalance),
		ReceiverBalance: money.Format(result.ReceiverBalance),
	})
}

// GetBalance returns a wallet's current balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		h.respondOperationError(c, err, accountID, 0)
		return
	}

	RespondOK(c, BalanceResponse{
		AccountID: accountID,
		Balance:   money.Format(balance),
	})
}

// ListTransactions returns a wallet's ledger entries, newest first
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, total, err := h.ledgerService.ListTransactions(c.Request.Context(), accountID, params.Page, params.PerPage)
	if err != nil {
		h.respondOperationError(c, err, accountID, 0)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// Reconcile verifies that the wallet's ledger entries sum to its balance
func (h *WalletHandler) Reconcile(c *gin.Context) {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return
	}

	report, err := h.ledgerService.Reconcile(c.Request.Context(), accountID)
	if err != nil {
		h.respondOperationError(c, err, accountID, 0)
		return
	}

	RespondOK(c, ReconciliationResponse{
		AccountID:  report.AccountID,
		Balance:    money.Format(report.Balance),
		LedgerSum:  money.Format(report.LedgerSum),
		Consistent: true,
	})
}

// callerOwnsAccount enforces that the authenticated caller operates on their
// own wallet. Writes a 403 response and returns false otherwise.
func (h *WalletHandler) callerOwnsAccount(c *gin.Context, accountID int64) bool {
	callerID, ok := middleware.GetAuthAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return false
	}
	if callerID != accountID {
		h.logger.Warn("Caller attempted to operate on another wallet",
			"caller_account_id", callerID,
			"target_account_id", accountID,
		)
		RespondForbidden(c, "You can only operate on your own wallet")
		return false
	}
	return true
}

func (h *WalletHandler) accountIDParam(c *gin.Context) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid account ID")
		return 0, false
	}
	return id, true
}

// respondOperationError maps engine errors to HTTP responses. For transfers,
// toID distinguishes "Sender not found" from "Receiver not found".
func (h *WalletHandler) respondOperationError(c *gin.Context, err error, fromID, toID int64) {
	var notFound account.ErrAccountNotFound
	switch {
	case errors.Is(err, money.ErrInvalidAmount), errors.Is(err, account.ErrInvalidAmount):
		RespondBadRequest(c, "Invalid amount: must be positive with at most 2 decimal places")
	case errors.Is(err, engine.ErrSameAccount):
		RespondBadRequest(c, "Cannot transfer to the same account")
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondBadRequest(c, "Insufficient funds")
	case errors.As(err, &notFound):
		switch {
		case toID != 0 && notFound.AccountID == toID:
			RespondNotFound(c, "Receiver not found")
		case toID != 0 && notFound.AccountID == fromID:
			RespondNotFound(c, "Sender not found")
		default:
			RespondNotFound(c, "Account not found")
		}
	default:
		var mismatch engine.ErrReconciliationMismatch
		if errors.As(err, &mismatch) {
			h.logger.Error("Ledger reconciliation mismatch",
				"account_id", mismatch.AccountID,
				"balance", mismatch.Balance,
				"ledger_sum", mismatch.LedgerSum,
			)
		} else {
			h.logger.Error("Wallet operation failed", "error", err)
		}
		RespondInternalError(c)
	}
}

func mapEntryToResponse(entry *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:          entry.ID,
		AccountID:   entry.AccountID,
		Amount:      money.Format(entry.Amount),
		Kind:        string(entry.Kind),
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}
}
