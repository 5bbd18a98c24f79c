package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/raman-prints/api/internal/domain"
)

func newUserServiceForTest(t *testing.T, repo *stubUserRepo) UserService {
	t.Helper()
	svc, err := NewUserService(UserServiceDeps{Users: repo})
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}
	return svc
}

func TestRequireActiveUser(t *testing.T) {
	account := domain.UserAccount{ID: "user-1", Role: domain.RoleUser, IsVerified: true}
	repo := &stubUserRepo{
		findFn: func(context.Context, string) (domain.UserAccount, error) { return account, nil },
	}
	svc := newUserServiceForTest(t, repo)

	if _, err := svc.RequireActiveUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("verified user: %v", err)
	}

	account.IsVerified = false
	if _, err := svc.RequireActiveUser(context.Background(), "user-1"); !errors.Is(err, ErrUserNotVerified) {
		t.Fatalf("expected not verified, got %v", err)
	}

	// Admins bypass the verification gate.
	account.Role = domain.RoleAdmin
	if _, err := svc.RequireActiveUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("admin bypass: %v", err)
	}

	account.IsDeleted = true
	if _, err := svc.RequireActiveUser(context.Background(), "user-1"); !errors.Is(err, ErrUserDeleted) {
		t.Fatalf("expected deleted, got %v", err)
	}
}

func TestRequireActiveUserNotFound(t *testing.T) {
	svc := newUserServiceForTest(t, &stubUserRepo{
		findFn: func(context.Context, string) (domain.UserAccount, error) {
			return domain.UserAccount{}, errRepoNotFound
		},
	})
	if _, err := svc.RequireActiveUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListUsersStripsPasswordHashes(t *testing.T) {
	svc := newUserServiceForTest(t, &stubUserRepo{
		listFn: func(context.Context) ([]domain.UserAccount, error) {
			return []domain.UserAccount{
				{ID: "user-1", PasswordHash: "hash-1"},
				{ID: "user-2", PasswordHash: "hash-2"},
			}, nil
		},
	})

	accounts, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	for _, account := range accounts {
		if account.PasswordHash != "" {
			t.Fatalf("expected password hash stripped for %s", account.ID)
		}
	}
}

func TestSetVerified(t *testing.T) {
	var setID string
	var setValue bool
	svc := newUserServiceForTest(t, &stubUserRepo{
		setVerifiedFn: func(_ context.Context, userID string, verified bool) error {
			setID = userID
			setValue = verified
			return nil
		},
		findFn: func(context.Context, string) (domain.UserAccount, error) {
			return domain.UserAccount{ID: "user-1", IsVerified: true, PasswordHash: "hash"}, nil
		},
	})

	account, err := svc.SetVerified(context.Background(), "user-1", true)
	if err != nil {
		t.Fatalf("set verified: %v", err)
	}
	if setID != "user-1" || !setValue {
		t.Fatalf("expected verify call for user-1, got %q %v", setID, setValue)
	}
	if account.PasswordHash != "" {
		t.Fatal("expected password hash stripped")
	}
}
