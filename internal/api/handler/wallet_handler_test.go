package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/demo-credit-wallet/internal/api/middleware"
	"github.com/demo-credit-wallet/internal/auth"
	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/domain/money"
	"github.com/demo-credit-wallet/internal/engine"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Fund(ctx context.Context, accountID int64, amount int64) (int64, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) Withdraw(ctx context.Context, accountID int64, amount int64) (int64, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, fromAccountID, toAccountID int64, amount int64) (*engine.TransferResult, error) {
	args := m.Called(ctx, fromAccountID, toAccountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.TransferResult), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) Reconcile(ctx context.Context, accountID int64) (*engine.ReconciliationReport, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ReconciliationReport), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// setupWalletRouter wires the handler behind the same auth middleware used in
// production: token123 controls account 1, token456 controls account 2.
func setupWalletRouter(h *WalletHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authenticator := auth.NewTokenAuthenticator(map[string]int64{
		"token123": 1,
		"token456": 2,
	})

	authed := r.Group("/wallets")
	authed.Use(middleware.Auth(authenticator))
	{
		authed.POST("/fund", h.Fund)
		authed.POST("/withdraw", h.Withdraw)
		authed.POST("/transfer", h.Transfer)
	}
	r.GET("/wallets/:id/balance", h.GetBalance)
	r.GET("/wallets/:id/transactions", h.ListTransactions)
	r.GET("/wallets/:id/reconciliation", h.Reconcile)

	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.FakeTokenHeader, token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var response Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.NotNil(t, response.Data)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(dataBytes, &out))
	return out
}

func TestWalletHandler_Fund(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Fund", mock.Anything, int64(1), int64(5000)).Return(int64(5000), nil)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/fund", "token123", `{"account_id":1,"amount":"50.00"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeData[MutationResponse](t, rr)
		assert.Equal(t, "50.00", body.Balance)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingToken", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))

		rr := doJSON(t, router, http.MethodPost, "/wallets/fund", "", `{"account_id":1,"amount":"50.00"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockService.AssertNotCalled(t, "Fund")
	})

	t.Run("OtherWalletForbidden", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))

		rr := doJSON(t, router, http.MethodPost, "/wallets/fund", "token123", `{"account_id":2,"amount":"50.00"}`)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockService.AssertNotCalled(t, "Fund")
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		for _, amount := range []string{`"0"`, `"-10.50"`, `"0.001"`, `"abc"`} {
			mockService := new(MockLedgerService)
			router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))

			rr := doJSON(t, router, http.MethodPost, "/wallets/fund", "token123", `{"account_id":1,"amount":`+amount+`}`)

			assert.Equal(t, http.StatusBadRequest, rr.Code, "amount %s should be rejected", amount)
			mockService.AssertNotCalled(t, "Fund")
		}
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Fund", mock.Anything, int64(1), int64(5000)).
			Return(int64(0), account.ErrAccountNotFound{AccountID: 1})

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/fund", "token123", `{"account_id":1,"amount":"50.00"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_Withdraw(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Withdraw", mock.Anything, int64(1), int64(1050)).Return(int64(3950), nil)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/withdraw", "token123", `{"account_id":1,"amount":"10.50"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeData[MutationResponse](t, rr)
		assert.Equal(t, "39.50", body.Balance)
		mockService.AssertExpectations(t)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Withdraw", mock.Anything, int64(1), int64(999999)).
			Return(int64(0), account.ErrInsufficientFunds)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/withdraw", "token123", `{"account_id":1,"amount":"9999.99"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "Insufficient funds", response.Error.Message)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_Transfer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Transfer", mock.Anything, int64(1), int64(2), int64(2500)).
			Return(&engine.TransferResult{SenderBalance: 2500, ReceiverBalance: 7500}, nil)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/transfer", "token123",
			`{"from_account_id":1,"to_account_id":2,"amount":"25.00"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeData[TransferResponse](t, rr)
		assert.Equal(t, "25.00", body.SenderBalance)
		assert.Equal(t, "75.00", body.ReceiverBalance)
		mockService.AssertExpectations(t)
	})

	t.Run("SenderMustBeCaller", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))

		rr := doJSON(t, router, http.MethodPost, "/wallets/transfer", "token123",
			`{"from_account_id":2,"to_account_id":1,"amount":"25.00"}`)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockService.AssertNotCalled(t, "Transfer")
	})

	t.Run("SameAccount", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Transfer", mock.Anything, int64(1), int64(1), int64(2500)).
			Return(nil, engine.ErrSameAccount)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/transfer", "token123",
			`{"from_account_id":1,"to_account_id":1,"amount":"25.00"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ReceiverNotFound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Transfer", mock.Anything, int64(1), int64(99), int64(2500)).
			Return(nil, account.ErrAccountNotFound{AccountID: 99})

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/transfer", "token123",
			`{"from_account_id":1,"to_account_id":99,"amount":"25.00"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "Receiver not found", response.Error.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("SenderNotFound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Transfer", mock.Anything, int64(1), int64(2), int64(2500)).
			Return(nil, account.ErrAccountNotFound{AccountID: 1})

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodPost, "/wallets/transfer", "token123",
			`{"from_account_id":1,"to_account_id":2,"amount":"25.00"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "Sender not found", response.Error.Message)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_GetBalance(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("GetBalance", mock.Anything, int64(1)).Return(int64(5000), nil)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodGet, "/wallets/1/balance", "", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeData[BalanceResponse](t, rr)
		assert.Equal(t, "50.00", body.Balance)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidID", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))

		rr := doJSON(t, router, http.MethodGet, "/wallets/abc/balance", "", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetBalance")
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("GetBalance", mock.Anything, int64(99)).
			Return(int64(0), account.ErrAccountNotFound{AccountID: 99})

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodGet, "/wallets/99/balance", "", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_ListTransactions(t *testing.T) {
	entries := []*ledger.Entry{
		{
			ID:          2,
			AccountID:   1,
			Amount:      1050,
			Kind:        ledger.EntryKindDebit,
			Description: "Wallet withdrawal",
			CreatedAt:   time.Now().UTC(),
		},
		{
			ID:          1,
			AccountID:   1,
			Amount:      5000,
			Kind:        ledger.EntryKindCredit,
			Description: "Wallet funded",
			CreatedAt:   time.Now().UTC().Add(-time.Minute),
		},
	}

	mockService := new(MockLedgerService)
	mockService.On("ListTransactions", mock.Anything, int64(1), 1, 10).Return(entries, int64(2), nil)

	router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
	rr := doJSON(t, router, http.MethodGet, "/wallets/1/transactions", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)

	var response Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	require.NotNil(t, response.Meta)
	assert.Equal(t, 2, response.Meta.TotalItems)

	body := decodeData[[]EntryResponse](t, rr)
	require.Len(t, body, 2)
	assert.Equal(t, "10.50", body[0].Amount)
	assert.Equal(t, string(ledger.EntryKindDebit), body[0].Kind)
	assert.Equal(t, "50.00", body[1].Amount)
	mockService.AssertExpectations(t)
}

func TestWalletHandler_Reconcile(t *testing.T) {
	t.Run("Consistent", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Reconcile", mock.Anything, int64(1)).
			Return(&engine.ReconciliationReport{AccountID: 1, Balance: 5000, LedgerSum: 5000}, nil)

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodGet, "/wallets/1/reconciliation", "", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeData[ReconciliationResponse](t, rr)
		assert.True(t, body.Consistent)
		assert.Equal(t, "50.00", body.Balance)
		mockService.AssertExpectations(t)
	})

	t.Run("MismatchIsInternal", func(t *testing.T) {
		mockService := new(MockLedgerService)
		mockService.On("Reconcile", mock.Anything, int64(1)).
			Return(nil, engine.ErrReconciliationMismatch{AccountID: 1, Balance: 5000, LedgerSum: 4000})

		router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
		rr := doJSON(t, router, http.MethodGet, "/wallets/1/reconciliation", "", "")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_InvalidAmountMapping(t *testing.T) {
	// The engine re-validates amounts; its error maps to 400 as well
	mockService := new(MockLedgerService)
	mockService.On("Fund", mock.Anything, int64(1), int64(100)).Return(int64(0), money.ErrInvalidAmount)

	router := setupWalletRouter(NewWalletHandler(testLogger(), mockService))
	rr := doJSON(t, router, http.MethodPost, "/wallets/fund", "token123", `{"account_id":1,"amount":"1.00"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertExpectations(t)
}
