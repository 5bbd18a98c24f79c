package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

const maxSettingsBodySize = 64 * 1024

// AdminSettingsHandlers manages the shop settings singleton and its catalog.
type AdminSettingsHandlers struct {
	settings services.SettingsService
	audit    services.AuditLogService
}

// NewAdminSettingsHandlers constructs a new AdminSettingsHandlers instance.
func NewAdminSettingsHandlers(settings services.SettingsService, audit services.AuditLogService) *AdminSettingsHandlers {
	return &AdminSettingsHandlers{
		settings: settings,
		audit:    audit,
	}
}

// Routes registers the /admin/settings endpoints.
func (h *AdminSettingsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/settings", h.getSettings)
	r.Patch("/settings", h.updateSettings)
	r.Post("/settings/services", h.addCatalogItem)
	r.Patch("/settings/services/{index}", h.updateCatalogItem)
	r.Delete("/settings/services/{index}", h.removeCatalogItem)
}

type adminSettingsResponse struct {
	ServiceItems       []catalogItemPayload `json:"service_items"`
	IsServiceAvailable bool                 `json:"is_service_available"`
	IsCodEnabled       bool                 `json:"is_cod_enabled"`
	AdminContactName   string               `json:"admin_contact_name"`
	AdminContactPhone  string               `json:"admin_contact_phone"`
	TotalOrders        int64                `json:"total_orders"`
	CompletedOrders    int64                `json:"completed_orders"`
	CancelledOrders    int64                `json:"cancelled_orders"`
	TotalRevenue       int64                `json:"total_revenue"`
	CreatedAt          string               `json:"created_at,omitempty"`
	UpdatedAt          string               `json:"updated_at,omitempty"`
}

func buildAdminSettingsResponse(settings services.Settings) adminSettingsResponse {
	return adminSettingsResponse{
		ServiceItems:       buildCatalogPayload(settings.ServiceItems),
		IsServiceAvailable: settings.IsServiceAvailable,
		IsCodEnabled:       settings.IsCodEnabled,
		AdminContactName:   settings.AdminContactName,
		AdminContactPhone:  settings.AdminContactPhone,
		TotalOrders:        settings.TotalOrders,
		CompletedOrders:    settings.CompletedOrders,
		CancelledOrders:    settings.CancelledOrders,
		TotalRevenue:       settings.TotalRevenue,
		CreatedAt:          formatTime(settings.CreatedAt),
		UpdatedAt:          formatTime(settings.UpdatedAt),
	}
}

func (h *AdminSettingsHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requireIdentity(ctx, w) == nil {
		return
	}

	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildAdminSettingsResponse(settings))
}

type catalogItemRequest struct {
	Name     string `json:"name"`
	Price    *int64 `json:"price"`
	IsActive *bool  `json:"is_active"`
}

type updateSettingsRequest struct {
	IsServiceAvailable *bool                 `json:"is_service_available"`
	IsCodEnabled       *bool                 `json:"is_cod_enabled"`
	AdminContactName   *string               `json:"admin_contact_name"`
	AdminContactPhone  *string               `json:"admin_contact_phone"`
	ServiceItems       *[]catalogItemRequest `json:"service_items"`
}

func (h *AdminSettingsHandlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	var req updateSettingsRequest
	if err := decodeJSONBody(r, maxSettingsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.UpdateSettingsCommand{
		IsServiceAvailable: req.IsServiceAvailable,
		IsCodEnabled:       req.IsCodEnabled,
		AdminContactName:   req.AdminContactName,
		AdminContactPhone:  req.AdminContactPhone,
	}
	if req.ServiceItems != nil {
		items := make([]services.CatalogItem, 0, len(*req.ServiceItems))
		for _, item := range *req.ServiceItems {
			entry := services.CatalogItem{Name: strings.TrimSpace(item.Name)}
			if item.Price != nil {
				entry.Price = *item.Price
			}
			if item.IsActive != nil {
				entry.IsActive = *item.IsActive
			} else {
				entry.IsActive = true
			}
			items = append(items, entry)
		}
		cmd.ServiceItems = &items
	}

	settings, err := h.settings.UpdateSettings(ctx, cmd)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	h.record(r, identity, "settings.updated", "")
	writeJSONResponse(w, http.StatusOK, buildAdminSettingsResponse(settings))
}

func (h *AdminSettingsHandlers) addCatalogItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	var req catalogItemRequest
	if err := decodeJSONBody(r, maxSettingsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	settings, err := h.settings.AddCatalogItem(ctx, services.CatalogItemCommand{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	h.record(r, identity, "settings.catalog_item_added", strings.TrimSpace(req.Name))
	writeJSONResponse(w, http.StatusCreated, buildAdminSettingsResponse(settings))
}

func (h *AdminSettingsHandlers) updateCatalogItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	index, ok := parseCatalogIndex(w, r)
	if !ok {
		return
	}

	var req catalogItemRequest
	if err := decodeJSONBody(r, maxSettingsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	settings, err := h.settings.UpdateCatalogItem(ctx, index, services.CatalogItemCommand{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		IsActive: req.IsActive,
	})
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	h.record(r, identity, "settings.catalog_item_updated", strconv.Itoa(index))
	writeJSONResponse(w, http.StatusOK, buildAdminSettingsResponse(settings))
}

func (h *AdminSettingsHandlers) removeCatalogItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	index, ok := parseCatalogIndex(w, r)
	if !ok {
		return
	}

	settings, err := h.settings.RemoveCatalogItem(ctx, index)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	h.record(r, identity, "settings.catalog_item_removed", strconv.Itoa(index))
	writeJSONResponse(w, http.StatusOK, buildAdminSettingsResponse(settings))
}

func parseCatalogIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	ctx := r.Context()
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "index must be a non-negative integer", http.StatusBadRequest))
		return 0, false
	}
	return index, true
}

func (h *AdminSettingsHandlers) record(r *http.Request, identity *auth.Identity, action, targetRef string) {
	if h.audit == nil {
		return
	}
	h.audit.Record(r.Context(), services.AuditLogRecord{
		Actor:     identity.UID,
		Action:    action,
		TargetRef: targetRef,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
