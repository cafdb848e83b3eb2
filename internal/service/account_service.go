package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// AccountService handles registration and profile business logic.
type AccountService struct {
	accountRepo *repository.AccountRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo *repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// Register creates a new account. The email must be unused; admin
// accounts cannot be created through this path.
func (s *AccountService) Register(ctx context.Context, a *model.Account) error {
	taken, err := s.accountRepo.EmailExists(ctx, a.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}

	if err := s.accountRepo.Create(ctx, a); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByEmail retrieves an account by email. A missing row maps to
// ErrInvalidCredentials so login responses do not reveal whether the
// email exists.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

// GetByID retrieves an account by ID.
func (s *AccountService) GetByID(ctx context.Context, id int) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// UpdateProfile applies a profile edit to the caller's own account.
func (s *AccountService) UpdateProfile(ctx context.Context, id int, req *model.UpdateProfileRequest) (*model.Account, error) {
	if err := s.accountRepo.UpdateProfile(ctx, id, req.Name, req.Bio, req.AvatarURL); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdatePassword replaces the stored credential hash.
func (s *AccountService) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	if err := s.accountRepo.UpdatePassword(ctx, id, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
