package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/repositories"
)

var (
	// ErrUserInvalidInput signals the caller provided invalid data.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates the account could not be located.
	ErrUserNotFound = errors.New("user: not found")
	// ErrUserNotVerified indicates the account has not been verified by staff.
	ErrUserNotVerified = errors.New("user: not verified")
	// ErrUserDeleted indicates the account was removed.
	ErrUserDeleted = errors.New("user: deleted")
)

// UserServiceDeps bundles constructor inputs for the user service.
type UserServiceDeps struct {
	Users  repositories.UserRepository
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	users  repositories.UserRepository
	logger func(context.Context, string, map[string]any)
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &userService{
		users:  deps.Users,
		logger: logger,
	}, nil
}

// RequireActiveUser gates order placement on a verified, non-deleted account.
func (s *userService) RequireActiveUser(ctx context.Context, userID string) (UserAccount, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return UserAccount{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}

	account, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return UserAccount{}, s.mapRepositoryError(err)
	}
	if account.IsDeleted {
		return UserAccount{}, ErrUserDeleted
	}
	if !account.IsVerified && account.Role != domain.RoleAdmin {
		return UserAccount{}, ErrUserNotVerified
	}
	return account, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]UserAccount, error) {
	accounts, err := s.users.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	// Password hashes never leave the service boundary.
	for i := range accounts {
		accounts[i].PasswordHash = ""
	}
	return accounts, nil
}

func (s *userService) SetVerified(ctx context.Context, userID string, verified bool) (UserAccount, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return UserAccount{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	if err := s.users.SetVerified(ctx, uid, verified); err != nil {
		return UserAccount{}, s.mapRepositoryError(err)
	}
	account, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return UserAccount{}, s.mapRepositoryError(err)
	}
	account.PasswordHash = ""
	return account, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	if err := s.users.Delete(ctx, uid); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *userService) Counts(ctx context.Context) (UserCounts, error) {
	counts, err := s.users.Counts(ctx)
	if err != nil {
		return UserCounts{}, s.mapRepositoryError(err)
	}
	return counts, nil
}

func (s *userService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrUserNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("user: repository unavailable: %w", err)
		}
	}

	return err
}
