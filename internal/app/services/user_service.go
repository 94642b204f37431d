package services

import (
	"context"
	"fmt"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/logger"
)

// AccountService handles account operations
type AccountService struct {
	store repositories.RecordStore
}

// NewAccountService creates a new account service instance
func NewAccountService(store repositories.RecordStore) *AccountService {
	return &AccountService{store: store}
}

// CreateAccount registers a new account. The password is hashed by the store.
func (s *AccountService) CreateAccount(ctx context.Context, candidate repositories.AccountCandidate) (*models.Account, error) {
	candidate.Role = models.RoleOrDefault(candidate.Role)
	if !candidate.Role.Valid() {
		return nil, apperrors.NewValidationError("role", "Role must be one of admin, student, teacher")
	}

	existing, err := s.store.GetAccountByUsername(ctx, candidate.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	account, err := s.store.CreateAccount(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	logger.Info().Int64("accountID", account.ID).Str("role", string(account.Role)).Msg("Account created")
	return account, nil
}

// GetAccount retrieves an account by id
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	if id <= 0 {
		return nil, apperrors.NewBadRequestError("Invalid account ID format")
	}

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving account: %w", err)
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return account, nil
}
