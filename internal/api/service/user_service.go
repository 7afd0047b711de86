// Package service holds the thin application services behind the HTTP
// handlers: user onboarding, and the ledger operations delegated to the
// engine.
package service

import (
	"context"
	"log/slog"

	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/reputation"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	accountRepo account.Repository
	reputation  reputation.Checker
	logger      *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(logger *slog.Logger, accountRepo account.Repository, checker reputation.Checker) UserService {
	return &UserServiceImpl{
		accountRepo: accountRepo,
		reputation:  checker,
		logger:      logger,
	}
}

// CreateUser onboards a new user with a zero-balance wallet. The email is
// checked against the karma blacklist before anything is stored; blacklisted
// identities are refused.
func (s *UserServiceImpl) CreateUser(ctx context.Context, name, email string) (*account.Account, error) {
	acc, err := account.NewAccount(name, email)
	if err != nil {
		return nil, err
	}

	if err := s.reputation.Check(ctx, acc.Email); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetByEmail(ctx, acc.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrDuplicateEmail{Email: acc.Email}
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "account_id", acc.ID, "email", acc.Email)
	return acc, nil
}

// GetUser retrieves a user's account, returns ErrAccountNotFound if missing
func (s *UserServiceImpl) GetUser(ctx context.Context, id int64) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}
