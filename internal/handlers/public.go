package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

// PublicHandlers serves unauthenticated shop information.
type PublicHandlers struct {
	settings services.SettingsService
}

// NewPublicHandlers constructs a new PublicHandlers instance.
func NewPublicHandlers(settings services.SettingsService) *PublicHandlers {
	return &PublicHandlers{settings: settings}
}

// Routes registers the /public endpoints.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/settings", h.getSettings)
}

type catalogItemPayload struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	IsActive bool   `json:"is_active"`
}

type publicSettingsResponse struct {
	ServiceItems       []catalogItemPayload `json:"service_items"`
	IsServiceAvailable bool                 `json:"is_service_available"`
	IsCodEnabled       bool                 `json:"is_cod_enabled"`
	AdminContactName   string               `json:"admin_contact_name"`
	AdminContactPhone  string               `json:"admin_contact_phone"`
}

// getSettings returns the catalog and availability flags. Lifetime counters
// stay off the public surface.
func (h *PublicHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, publicSettingsResponse{
		ServiceItems:       buildCatalogPayload(settings.ServiceItems),
		IsServiceAvailable: settings.IsServiceAvailable,
		IsCodEnabled:       settings.IsCodEnabled,
		AdminContactName:   settings.AdminContactName,
		AdminContactPhone:  settings.AdminContactPhone,
	})
}

func buildCatalogPayload(items []services.CatalogItem) []catalogItemPayload {
	result := make([]catalogItemPayload, 0, len(items))
	for _, item := range items {
		result = append(result, catalogItemPayload{
			Name:     item.Name,
			Price:    item.Price,
			IsActive: item.IsActive,
		})
	}
	return result
}

func writeSettingsError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrSettingsInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("settings_error", "failed to load shop settings", http.StatusInternalServerError))
	}
}
