package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demo-credit-wallet/internal/auth"
)

const (
	// FakeTokenHeader carries the faux bearer token
	FakeTokenHeader = "X-Fake-Token"

	// AuthAccountIDKey is the key used to store the caller's account id
	AuthAccountIDKey = "auth_account_id"
)

// Auth middleware resolves the faux bearer token to the caller's account id.
// Requests without a recognized token are rejected with 401.
func Auth(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(FakeTokenHeader)

		accountID, err := authenticator.Authenticate(token)
		if err != nil {
			message := "Invalid authentication token"
			if errors.Is(err, auth.ErrMissingToken) {
				message = "Authentication token is required"
			}

			response := gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": message,
				},
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				response["correlation_id"] = correlationID
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, response)
			return
		}

		c.Set(AuthAccountIDKey, accountID)
		c.Next()
	}
}

// GetAuthAccountID retrieves the authenticated caller's account id. The
// second return value is false when the request was not authenticated.
func GetAuthAccountID(c *gin.Context) (int64, bool) {
	if id, exists := c.Get(AuthAccountIDKey); exists {
		if accountID, ok := id.(int64); ok {
			return accountID, true
		}
	}
	return 0, false
}
