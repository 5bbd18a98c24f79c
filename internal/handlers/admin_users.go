package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

const maxUserBodySize = 4 * 1024

// AdminUserHandlers exposes the staff user directory surface.
type AdminUserHandlers struct {
	users services.UserService
	audit services.AuditLogService
}

// NewAdminUserHandlers constructs a new AdminUserHandlers instance.
func NewAdminUserHandlers(users services.UserService, audit services.AuditLogService) *AdminUserHandlers {
	return &AdminUserHandlers{
		users: users,
		audit: audit,
	}
}

// Routes registers the /admin/users endpoints.
func (h *AdminUserHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/users", h.listUsers)
	r.Post("/users/{userID}:verify", h.verifyUser)
	r.Delete("/users/{userID}", h.deleteUser)
}

type userPayload struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	WhatsappNumber string `json:"whatsapp_number,omitempty"`
	Year           string `json:"year,omitempty"`
	Role           string `json:"role"`
	IsVerified     bool   `json:"is_verified"`
	IsDeleted      bool   `json:"is_deleted,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

type userListResponse struct {
	Items []userPayload `json:"items"`
}

type userResponse struct {
	User userPayload `json:"user"`
}

func buildUserPayload(user services.UserAccount) userPayload {
	return userPayload{
		ID:             strings.TrimSpace(user.ID),
		FullName:       user.FullName,
		WhatsappNumber: user.WhatsappNumber,
		Year:           user.Year,
		Role:           string(user.Role),
		IsVerified:     user.IsVerified,
		IsDeleted:      user.IsDeleted,
		CreatedAt:      formatTime(user.CreatedAt),
		UpdatedAt:      formatTime(user.UpdatedAt),
	}
}

func (h *AdminUserHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requireIdentity(ctx, w) == nil {
		return
	}

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	items := make([]userPayload, 0, len(users))
	for _, user := range users {
		items = append(items, buildUserPayload(user))
	}
	writeJSONResponse(w, http.StatusOK, userListResponse{Items: items})
}

type verifyUserRequest struct {
	Verified *bool `json:"verified"`
}

func (h *AdminUserHandlers) verifyUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "user id is required", http.StatusBadRequest))
		return
	}

	verified := true
	var req verifyUserRequest
	if err := decodeJSONBody(r, maxUserBodySize, &req); err == nil && req.Verified != nil {
		verified = *req.Verified
	}

	user, err := h.users.SetVerified(ctx, userID, verified)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	h.record(r, identity, "user.verification_changed", userID, map[string]any{"verified": verified})
	writeJSONResponse(w, http.StatusOK, userResponse{User: buildUserPayload(user)})
}

func (h *AdminUserHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "user id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.DeleteUser(ctx, userID); err != nil {
		writeUserError(ctx, w, err)
		return
	}

	h.record(r, identity, "user.deleted", userID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminUserHandlers) record(r *http.Request, identity *auth.Identity, action, targetRef string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	h.audit.Record(r.Context(), services.AuditLogRecord{
		Actor:     identity.UID,
		Action:    action,
		TargetRef: targetRef,
		Metadata:  metadata,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process user request", http.StatusInternalServerError))
	}
}
