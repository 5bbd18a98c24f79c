package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

// AdminFeedbackHandlers exposes feedback moderation for staff.
type AdminFeedbackHandlers struct {
	feedback services.FeedbackService
	audit    services.AuditLogService
}

// NewAdminFeedbackHandlers constructs a new AdminFeedbackHandlers instance.
func NewAdminFeedbackHandlers(feedback services.FeedbackService, audit services.AuditLogService) *AdminFeedbackHandlers {
	return &AdminFeedbackHandlers{
		feedback: feedback,
		audit:    audit,
	}
}

// Routes registers the /admin/feedback endpoints.
func (h *AdminFeedbackHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/feedback", h.listFeedback)
	r.Post("/feedback/{feedbackID}:reply", h.reply)
}

func (h *AdminFeedbackHandlers) listFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requireIdentity(ctx, w) == nil {
		return
	}

	items, err := h.feedback.ListAll(ctx)
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildFeedbackListResponse(items))
}

type replyFeedbackRequest struct {
	Reply string `json:"reply"`
}

func (h *AdminFeedbackHandlers) reply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	feedbackID := strings.TrimSpace(chi.URLParam(r, "feedbackID"))
	if feedbackID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "feedback id is required", http.StatusBadRequest))
		return
	}

	var req replyFeedbackRequest
	if err := decodeJSONBody(r, maxFeedbackBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	fb, err := h.feedback.Reply(ctx, services.ReplyFeedbackCommand{
		FeedbackID: feedbackID,
		Reply:      req.Reply,
		Actor:      identity.UID,
	})
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}

	if h.audit != nil {
		h.audit.Record(ctx, services.AuditLogRecord{
			Actor:     identity.UID,
			Action:    "feedback.replied",
			TargetRef: feedbackID,
			RequestID: middleware.GetReqID(ctx),
		})
	}

	writeJSONResponse(w, http.StatusOK, feedbackResponse{Feedback: buildFeedbackPayload(fb)})
}
