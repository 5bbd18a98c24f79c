package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/services"
)

type stubSettingsService struct {
	getFn    func(context.Context) (services.Settings, error)
	updateFn func(context.Context, services.UpdateSettingsCommand) (services.Settings, error)
	addFn    func(context.Context, services.CatalogItemCommand) (services.Settings, error)
	editFn   func(context.Context, int, services.CatalogItemCommand) (services.Settings, error)
	removeFn func(context.Context, int) (services.Settings, error)
}

func (s *stubSettingsService) GetSettings(ctx context.Context) (services.Settings, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return services.Settings{}, errors.New("not implemented")
}

func (s *stubSettingsService) UpdateSettings(ctx context.Context, cmd services.UpdateSettingsCommand) (services.Settings, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Settings{}, errors.New("not implemented")
}

func (s *stubSettingsService) AddCatalogItem(ctx context.Context, cmd services.CatalogItemCommand) (services.Settings, error) {
	if s.addFn != nil {
		return s.addFn(ctx, cmd)
	}
	return services.Settings{}, errors.New("not implemented")
}

func (s *stubSettingsService) UpdateCatalogItem(ctx context.Context, index int, cmd services.CatalogItemCommand) (services.Settings, error) {
	if s.editFn != nil {
		return s.editFn(ctx, index, cmd)
	}
	return services.Settings{}, errors.New("not implemented")
}

func (s *stubSettingsService) RemoveCatalogItem(ctx context.Context, index int) (services.Settings, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, index)
	}
	return services.Settings{}, errors.New("not implemented")
}

var _ services.SettingsService = (*stubSettingsService)(nil)

func newAdminSettingsRouter(settings services.SettingsService, audit services.AuditLogService) chi.Router {
	handler := NewAdminSettingsHandlers(settings, audit)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)
	return router
}

func TestAdminSettingsHandlersGetIncludesCounters(t *testing.T) {
	service := &stubSettingsService{
		getFn: func(context.Context) (services.Settings, error) {
			return services.Settings{
				ServiceItems:       []services.CatalogItem{{Name: "Color Printing", Price: 5, IsActive: true}},
				IsServiceAvailable: true,
				IsCodEnabled:       true,
				TotalOrders:        42,
				TotalRevenue:       900,
			}, nil
		},
	}

	router := newAdminSettingsRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["total_orders"] != float64(42) {
		t.Fatalf("expected total_orders 42, got %v", resp["total_orders"])
	}
	if resp["total_revenue"] != float64(900) {
		t.Fatalf("expected total_revenue 900, got %v", resp["total_revenue"])
	}
}

func TestAdminSettingsHandlersUpdateFlags(t *testing.T) {
	var captured services.UpdateSettingsCommand
	service := &stubSettingsService{
		updateFn: func(_ context.Context, cmd services.UpdateSettingsCommand) (services.Settings, error) {
			captured = cmd
			return services.Settings{IsServiceAvailable: false, IsCodEnabled: true}, nil
		},
	}
	audit := &recordingAuditService{}

	router := newAdminSettingsRouter(service, audit)

	body := `{"is_service_available": false, "admin_contact_name": "Shop Desk"}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/settings", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.IsServiceAvailable == nil || *captured.IsServiceAvailable {
		t.Fatalf("expected is_service_available=false, got %+v", captured.IsServiceAvailable)
	}
	if captured.IsCodEnabled != nil {
		t.Fatalf("expected is_cod_enabled untouched, got %+v", captured.IsCodEnabled)
	}
	if captured.AdminContactName == nil || *captured.AdminContactName != "Shop Desk" {
		t.Fatalf("expected contact name update, got %+v", captured.AdminContactName)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "settings.updated" {
		t.Fatalf("expected settings audit record, got %+v", audit.records)
	}
}

func TestAdminSettingsHandlersAddCatalogItem(t *testing.T) {
	var captured services.CatalogItemCommand
	service := &stubSettingsService{
		addFn: func(_ context.Context, cmd services.CatalogItemCommand) (services.Settings, error) {
			captured = cmd
			return services.Settings{ServiceItems: []services.CatalogItem{{Name: cmd.Name}}}, nil
		},
	}

	router := newAdminSettingsRouter(service, nil)

	body := `{"name": "Photo Printing", "price": 15, "is_active": true}`
	req := httptest.NewRequest(http.MethodPost, "/admin/settings/services", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Name != "Photo Printing" {
		t.Fatalf("expected name Photo Printing, got %s", captured.Name)
	}
	if captured.Price == nil || *captured.Price != 15 {
		t.Fatalf("expected price 15, got %+v", captured.Price)
	}
}

func TestAdminSettingsHandlersUpdateCatalogItemByIndex(t *testing.T) {
	var capturedIndex int
	service := &stubSettingsService{
		editFn: func(_ context.Context, index int, cmd services.CatalogItemCommand) (services.Settings, error) {
			capturedIndex = index
			return services.Settings{}, nil
		},
	}

	router := newAdminSettingsRouter(service, nil)

	body := `{"price": 7}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/settings/services/2", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if capturedIndex != 2 {
		t.Fatalf("expected index 2, got %d", capturedIndex)
	}
}

func TestAdminSettingsHandlersRejectsInvalidIndex(t *testing.T) {
	router := newAdminSettingsRouter(&stubSettingsService{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/settings/services/not-a-number", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
