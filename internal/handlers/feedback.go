package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

const maxFeedbackBodySize = 16 * 1024

// FeedbackHandlers exposes feedback submission and listing for customers.
type FeedbackHandlers struct {
	authn    *auth.Authenticator
	feedback services.FeedbackService
	users    services.UserService
}

// NewFeedbackHandlers constructs a new FeedbackHandlers instance.
func NewFeedbackHandlers(authn *auth.Authenticator, feedback services.FeedbackService, users services.UserService) *FeedbackHandlers {
	return &FeedbackHandlers{
		authn:    authn,
		feedback: feedback,
		users:    users,
	}
}

// Routes registers the /feedback endpoints.
func (h *FeedbackHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.submit)
	r.Get("/", h.listOwn)
}

type submitFeedbackRequest struct {
	Message string `json:"message"`
	Rating  *int   `json:"rating"`
}

func (h *FeedbackHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	var req submitFeedbackRequest
	if err := decodeJSONBody(r, maxFeedbackBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if h.users != nil {
		if _, err := h.users.RequireActiveUser(ctx, identity.UID); err != nil {
			writeUserGateError(ctx, w, err)
			return
		}
	}

	fb, err := h.feedback.Submit(ctx, services.SubmitFeedbackCommand{
		UserID:  identity.UID,
		Message: req.Message,
		Rating:  req.Rating,
	})
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, feedbackResponse{Feedback: buildFeedbackPayload(fb)})
}

func (h *FeedbackHandlers) listOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	items, err := h.feedback.ListForUser(ctx, identity.UID)
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildFeedbackListResponse(items))
}

type feedbackResponse struct {
	Feedback feedbackPayload `json:"feedback"`
}

type feedbackListResponse struct {
	Items []feedbackPayload `json:"items"`
}

type feedbackPayload struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Message        string `json:"message"`
	Rating         *int   `json:"rating,omitempty"`
	AdminReply     string `json:"admin_reply,omitempty"`
	AdminRepliedAt string `json:"admin_replied_at,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func buildFeedbackPayload(fb services.Feedback) feedbackPayload {
	return feedbackPayload{
		ID:             strings.TrimSpace(fb.ID),
		UserID:         strings.TrimSpace(fb.UserID),
		Message:        fb.Message,
		Rating:         fb.Rating,
		AdminReply:     fb.AdminReply,
		AdminRepliedAt: formatTime(pointerTime(fb.AdminRepliedAt)),
		CreatedAt:      formatTime(fb.CreatedAt),
		UpdatedAt:      formatTime(fb.UpdatedAt),
	}
}

func buildFeedbackListResponse(items []services.Feedback) feedbackListResponse {
	payloads := make([]feedbackPayload, 0, len(items))
	for _, fb := range items {
		payloads = append(payloads, buildFeedbackPayload(fb))
	}
	return feedbackListResponse{Items: payloads}
}

func writeFeedbackError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrFeedbackInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrFeedbackNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("feedback_not_found", "feedback not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("feedback_error", "failed to process feedback request", http.StatusInternalServerError))
	}
}
