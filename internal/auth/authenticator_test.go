package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenAuthenticator_Authenticate(t *testing.T) {
	authenticator := NewTokenAuthenticator(map[string]int64{
		"token123": 1,
		"token456": 2,
	})

	tests := []struct {
		name          string
		token         string
		expectedID    int64
		expectedError error
	}{
		{
			name:       "known token resolves to account",
			token:      "token123",
			expectedID: 1,
		},
		{
			name:       "second token resolves to its own account",
			token:      "token456",
			expectedID: 2,
		},
		{
			name:          "empty token is missing",
			token:         "",
			expectedError: ErrMissingToken,
		},
		{
			name:          "unknown token is invalid",
			token:         "token789",
			expectedError: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountID, err := authenticator.Authenticate(tt.token)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, accountID)
			}
		})
	}
}
