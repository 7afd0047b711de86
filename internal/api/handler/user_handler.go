package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demo-credit-wallet/internal/api/service"
	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/money"
	"github.com/demo-credit-wallet/internal/reputation"
)

// UserHandler handles HTTP requests for user onboarding
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(logger *slog.Logger, userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Create onboards a new user with a zero-balance wallet. Blacklisted
// identities are refused with 403.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.userService.CreateUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		var duplicateEmailErr account.ErrDuplicateEmail
		switch {
		case errors.Is(err, account.ErrEmptyName), errors.Is(err, account.ErrEmptyEmail):
			RespondBadRequest(c, err.Error())
		case errors.As(err, &duplicateEmailErr):
			h.logger.Warn("Attempt to create user with duplicate email", "email", duplicateEmailErr.Email)
			RespondBadRequest(c, "User with this email already exists")
		case errors.Is(err, reputation.ErrBlacklisted{}):
			h.logger.Warn("Refused blacklisted user", "email", req.Email)
			RespondForbidden(c, "User is blacklisted and cannot be onboarded")
		default:
			h.logger.Error("Failed to create user", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapUserToResponse(acc))
}

// GetByID retrieves a user by id, returning 404 if not found
func (h *UserHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	acc, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		var notFound account.ErrAccountNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "User not found")
			return
		}
		h.logger.Error("Failed to get user", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapUserToResponse(acc))
}

// mapUserToResponse maps an account entity to a user response DTO
func mapUserToResponse(acc *account.Account) UserResponse {
	return UserResponse{
		ID:        acc.ID,
		Name:      acc.Name,
		Email:     acc.Email,
		Balance:   money.Format(acc.Balance),
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
	}
}
