// Package reputation checks prospective users against the Lendsqr Adjutor
// Karma blacklist. Users with a karma record are refused onboarding.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/demo-credit-wallet/internal/config"
)

// Checker reports whether an identity is blacklisted
type Checker interface {
	Check(ctx context.Context, identity string) error
}

// ErrBlacklisted indicates the identity has a karma record
type ErrBlacklisted struct {
	Identity string
	Reason   string
}

func (e ErrBlacklisted) Error() string {
	if e.Reason != "" {
		return "identity " + e.Identity + " is blacklisted: " + e.Reason
	}
	return "identity " + e.Identity + " is blacklisted"
}

// Is allows matching against ErrBlacklisted regardless of the identity
func (e ErrBlacklisted) Is(target error) bool {
	_, ok := target.(ErrBlacklisted)
	return ok
}

// HTTPDoer wraps http.Client for testing
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// KarmaChecker implements Checker against the Adjutor Karma lookup endpoint
type KarmaChecker struct {
	client      HTTPDoer
	baseURL     string
	bearerToken string
	logger      *slog.Logger
}

func NewKarmaChecker(logger *slog.Logger, cfg *config.KarmaConfig) *KarmaChecker {
	return &KarmaChecker{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		bearerToken: cfg.BearerToken,
		logger:      logger,
	}
}

// NewKarmaCheckerWithClient creates a checker with a custom HTTP client, used
// in tests.
func NewKarmaCheckerWithClient(logger *slog.Logger, cfg *config.KarmaConfig, client HTTPDoer) *KarmaChecker {
	return &KarmaChecker{
		client:      client,
		baseURL:     cfg.BaseURL,
		bearerToken: cfg.BearerToken,
		logger:      logger,
	}
}

// karmaResponse is the subset of the Karma lookup response we act on
type karmaResponse struct {
	Status string `json:"status"`
	Data   struct {
		KarmaIdentity string `json:"karma_identity"`
		Reason        string `json:"reason"`
	} `json:"data"`
}

// Check looks the identity up in the Karma blacklist. A 404 means the
// identity has no record and is clear; a response carrying a karma identity
// means the user must be refused.
func (c *KarmaChecker) Check(ctx context.Context, identity string) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(identity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build karma lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Karma lookup request failed", "identity", identity, "error", err)
		return fmt.Errorf("karma lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No karma record for this identity
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read karma lookup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Karma lookup returned unexpected status",
			"identity", identity,
			"status_code", resp.StatusCode,
		)
		return fmt.Errorf("karma lookup returned status %d", resp.StatusCode)
	}

	var karma karmaResponse
	if err := json.Unmarshal(body, &karma); err != nil {
		return fmt.Errorf("failed to decode karma lookup response: %w", err)
	}

	if karma.Data.KarmaIdentity != "" {
		c.logger.Warn("Identity found on karma blacklist", "identity", identity)
		return ErrBlacklisted{Identity: identity, Reason: karma.Data.Reason}
	}

	return nil
}
