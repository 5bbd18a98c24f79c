package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

const maxStatsBodySize = 4 * 1024

// AdminStatsHandlers serves the dashboard statistics and the reset flow.
type AdminStatsHandlers struct {
	stats services.StatsService
	audit services.AuditLogService
}

// NewAdminStatsHandlers constructs a new AdminStatsHandlers instance.
func NewAdminStatsHandlers(stats services.StatsService, audit services.AuditLogService) *AdminStatsHandlers {
	return &AdminStatsHandlers{
		stats: stats,
		audit: audit,
	}
}

// Routes registers the /admin/stats endpoints.
func (h *AdminStatsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/stats", h.getStats)
	r.Post("/stats:reset", h.resetStats)
}

type statsResponse struct {
	TotalOrders          int64 `json:"total_orders"`
	PendingOrders        int64 `json:"pending_orders"`
	CompletedOrders      int64 `json:"completed_orders"`
	CancelledOrders      int64 `json:"cancelled_orders"`
	TotalRevenue         int64 `json:"total_revenue"`
	PendingRevenue       int64 `json:"pending_revenue"`
	TotalUsers           int64 `json:"total_users"`
	VerifiedUsers        int64 `json:"verified_users"`
	PendingVerifications int64 `json:"pending_verifications"`
	RecentOrders         int64 `json:"recent_orders"`
	TodayOrders          int64 `json:"today_orders"`
}

func (h *AdminStatsHandlers) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requireIdentity(ctx, w) == nil {
		return
	}

	snapshot, err := h.stats.GetStats(ctx)
	if err != nil {
		writeStatsError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, statsResponse{
		TotalOrders:          snapshot.TotalOrders,
		PendingOrders:        snapshot.PendingOrders,
		CompletedOrders:      snapshot.CompletedOrders,
		CancelledOrders:      snapshot.CancelledOrders,
		TotalRevenue:         snapshot.TotalRevenue,
		PendingRevenue:       snapshot.PendingRevenue,
		TotalUsers:           snapshot.TotalUsers,
		VerifiedUsers:        snapshot.VerifiedUsers,
		PendingVerifications: snapshot.PendingVerifications,
		RecentOrders:         snapshot.RecentOrders,
		TodayOrders:          snapshot.TodayOrders,
	})
}

type resetStatsRequest struct {
	Password string `json:"password"`
}

func (h *AdminStatsHandlers) resetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	var req resetStatsRequest
	if err := decodeJSONBody(r, maxStatsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.stats.ResetStats(ctx, services.ResetStatsCommand{
		AdminID:  identity.UID,
		Password: req.Password,
	}); err != nil {
		writeStatsError(ctx, w, err)
		return
	}

	if h.audit != nil {
		h.audit.Record(ctx, services.AuditLogRecord{
			Actor:     identity.UID,
			Action:    "stats.reset",
			RequestID: middleware.GetReqID(ctx),
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeStatsError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrStatsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrStatsForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("stats_forbidden", "password verification failed", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("stats_error", "failed to process statistics request", http.StatusInternalServerError))
	}
}
