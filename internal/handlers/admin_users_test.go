package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/services"
)

func newAdminUserRouter(users services.UserService, audit services.AuditLogService) chi.Router {
	handler := NewAdminUserHandlers(users, audit)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)
	return router
}

func TestAdminUserHandlersListUsers(t *testing.T) {
	users := &stubUserService{
		listFn: func(context.Context) ([]services.UserAccount, error) {
			return []services.UserAccount{
				{ID: "user-1", FullName: "Asha Rao", Role: domain.RoleUser, IsVerified: true},
				{ID: "user-2", FullName: "Vikram Shah", Role: domain.RoleUser},
			}, nil
		},
	}

	router := newAdminUserRouter(users, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp userListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Items) != 2 || resp.Items[0].ID != "user-1" || !resp.Items[0].IsVerified {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestAdminUserHandlersVerifyUserDefaultsTrue(t *testing.T) {
	var capturedVerified bool
	users := &stubUserService{
		setVerifiedFn: func(_ context.Context, userID string, verified bool) (services.UserAccount, error) {
			capturedVerified = verified
			return services.UserAccount{ID: userID, IsVerified: verified}, nil
		},
	}
	audit := &recordingAuditService{}

	router := newAdminUserRouter(users, audit)

	req := httptest.NewRequest(http.MethodPost, "/admin/users/user-3:verify", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !capturedVerified {
		t.Fatal("expected verified=true by default")
	}
	if len(audit.records) != 1 || audit.records[0].Action != "user.verification_changed" {
		t.Fatalf("expected verification audit record, got %+v", audit.records)
	}
}

func TestAdminUserHandlersVerifyUserExplicitFalse(t *testing.T) {
	var capturedVerified bool
	users := &stubUserService{
		setVerifiedFn: func(_ context.Context, userID string, verified bool) (services.UserAccount, error) {
			capturedVerified = verified
			return services.UserAccount{ID: userID, IsVerified: verified}, nil
		},
	}

	router := newAdminUserRouter(users, nil)

	body := `{"verified": false}`
	req := httptest.NewRequest(http.MethodPost, "/admin/users/user-3:verify", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if capturedVerified {
		t.Fatal("expected verified=false")
	}
}

func TestAdminUserHandlersDeleteUser(t *testing.T) {
	var captured string
	users := &stubUserService{
		deleteFn: func(_ context.Context, userID string) error {
			captured = userID
			return nil
		},
	}
	audit := &recordingAuditService{}

	router := newAdminUserRouter(users, audit)

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/user-4", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if captured != "user-4" {
		t.Fatalf("expected user-4, got %s", captured)
	}
	if len(audit.records) != 1 || audit.records[0].TargetRef != "user-4" {
		t.Fatalf("expected delete audit record, got %+v", audit.records)
	}
}

func TestAdminUserHandlersDeleteUserNotFound(t *testing.T) {
	users := &stubUserService{
		deleteFn: func(context.Context, string) error {
			return services.ErrUserNotFound
		},
	}

	router := newAdminUserRouter(users, nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/ghost", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
