package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demo-credit-wallet/internal/api/handler"
	"github.com/demo-credit-wallet/internal/api/middleware"
	"github.com/demo-credit-wallet/internal/auth"
)

// setupRouter configures API routes and middleware for the application.
// Mutation endpoints require the faux bearer token; balance and transaction
// reads are open.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	authenticator auth.Authenticator,
	walletHandler *handler.WalletHandler,
	userHandler *handler.UserHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// User onboarding
		users := v1.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("/:id", userHandler.GetByID)
		}

		// Wallet operations
		wallets := v1.Group("/wallets")
		{
			authed := wallets.Group("")
			authed.Use(middleware.Auth(authenticator))
			{
				authed.POST("/fund", walletHandler.Fund)
				authed.POST("/withdraw", walletHandler.Withdraw)
				authed.POST("/transfer", walletHandler.Transfer)
			}

			wallets.GET("/:id/balance", walletHandler.GetBalance)
			wallets.GET("/:id/transactions", walletHandler.ListTransactions)
			wallets.GET("/:id/reconciliation", walletHandler.Reconcile)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
