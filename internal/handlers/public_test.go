package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/raman-prints/api/internal/services"
)

func TestPublicHandlersGetSettingsHidesCounters(t *testing.T) {
	service := &stubSettingsService{
		getFn: func(context.Context) (services.Settings, error) {
			return services.Settings{
				ServiceItems:       []services.CatalogItem{{Name: "Spiral Binding", Price: 20, IsActive: true}},
				IsServiceAvailable: true,
				IsCodEnabled:       false,
				AdminContactName:   "Raman Prints",
				AdminContactPhone:  "+91 98765 43210",
				TotalOrders:        500,
				TotalRevenue:       99999,
			}, nil
		},
	}

	handler := NewPublicHandlers(service)
	router := chi.NewRouter()
	router.Route("/public", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/public/settings", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if _, ok := resp["total_orders"]; ok {
		t.Fatal("public settings must not expose total_orders")
	}
	if _, ok := resp["total_revenue"]; ok {
		t.Fatal("public settings must not expose total_revenue")
	}
	if resp["is_service_available"] != true {
		t.Fatalf("expected is_service_available true, got %v", resp["is_service_available"])
	}
	if resp["is_cod_enabled"] != false {
		t.Fatalf("expected is_cod_enabled false, got %v", resp["is_cod_enabled"])
	}

	items, ok := resp["service_items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one service item, got %v", resp["service_items"])
	}
}
