// Package auth implements the faux token authentication scheme: a static
// token-to-account mapping loaded from configuration. It stands in for a real
// identity provider and exists to enforce wallet ownership on write paths.
package auth

import (
	"errors"
)

// Common errors
var (
	ErrMissingToken = errors.New("authentication token is missing")
	ErrInvalidToken = errors.New("authentication token is not recognized")
)

// Authenticator resolves a bearer token to the account it controls
type Authenticator interface {
	Authenticate(token string) (int64, error)
}

// TokenAuthenticator authenticates against a static token map
type TokenAuthenticator struct {
	tokens map[string]int64
}

func NewTokenAuthenticator(tokens map[string]int64) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens}
}

// Authenticate returns the account id that owns the token
func (a *TokenAuthenticator) Authenticate(token string) (int64, error) {
	if token == "" {
		return 0, ErrMissingToken
	}

	accountID, ok := a.tokens[token]
	if !ok {
		return 0, ErrInvalidToken
	}
	return accountID, nil
}
