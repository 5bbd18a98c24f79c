package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/services"
)

func newAdminOrderRouter(orders services.OrderService, payments services.PaymentService, audit services.AuditLogService) chi.Router {
	handler := NewAdminOrderHandlers(orders, payments, audit)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)
	return router
}

func TestAdminOrderHandlersChangeStatus(t *testing.T) {
	var captured services.ChangeOrderStatusCommand
	service := &stubOrderService{
		changeStatusFn: func(_ context.Context, cmd services.ChangeOrderStatusCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: cmd.OrderID, Status: cmd.Target}, nil
		},
	}
	audit := &recordingAuditService{}

	router := newAdminOrderRouter(service, &stubPaymentService{}, audit)

	body := `{"status": "completed"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord_1:status", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_1" || captured.Target != domain.OrderStatusCompleted || captured.Actor != "admin-1" {
		t.Fatalf("unexpected command: %+v", captured)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "order.status_changed" {
		t.Fatalf("expected one audit record for status change, got %+v", audit.records)
	}
}

func TestAdminOrderHandlersChangeStatusRejectsUnknownStatus(t *testing.T) {
	router := newAdminOrderRouter(&stubOrderService{}, &stubPaymentService{}, nil)

	body := `{"status": "archived"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord_1:status", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminOrderHandlersChangeStatusInvalidTransition(t *testing.T) {
	service := &stubOrderService{
		changeStatusFn: func(context.Context, services.ChangeOrderStatusCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidState
		},
	}

	router := newAdminOrderRouter(service, &stubPaymentService{}, nil)

	body := `{"status": "pending"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord_1:status", bytes.NewBufferString(body))
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminOrderHandlersMarkPaid(t *testing.T) {
	var captured services.MarkPaidCommand
	payments := &stubPaymentService{
		markPaidFn: func(_ context.Context, cmd services.MarkPaidCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: cmd.OrderID, PaymentStatus: domain.PaymentStatusPaid}, nil
		},
	}
	audit := &recordingAuditService{}

	router := newAdminOrderRouter(&stubOrderService{}, payments, audit)

	req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord_2:markPaid", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_2" || captured.Actor != "admin-1" {
		t.Fatalf("unexpected command: %+v", captured)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "order.marked_paid" {
		t.Fatalf("expected mark paid audit record, got %+v", audit.records)
	}
}

func TestAdminOrderHandlersApproveCancel(t *testing.T) {
	service := &stubOrderService{
		approveCancelFn: func(_ context.Context, cmd services.ApproveCancelCommand) (services.Order, error) {
			return services.Order{ID: cmd.OrderID, Status: domain.OrderStatusCancelled, CancelApprovedByAdmin: true}, nil
		},
	}

	router := newAdminOrderRouter(service, &stubPaymentService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/orders/ord_3:approveCancel", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminOrderHandlersDeleteOrder(t *testing.T) {
	var captured services.DeleteOrderCommand
	service := &stubOrderService{
		deleteFn: func(_ context.Context, cmd services.DeleteOrderCommand) error {
			captured = cmd
			return nil
		},
	}
	audit := &recordingAuditService{}

	router := newAdminOrderRouter(service, &stubPaymentService{}, audit)

	req := httptest.NewRequest(http.MethodDelete, "/admin/orders/ord_4", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if captured.OrderID != "ord_4" {
		t.Fatalf("unexpected command: %+v", captured)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "order.deleted" || audit.records[0].TargetRef != "ord_4" {
		t.Fatalf("expected delete audit record, got %+v", audit.records)
	}
}

func TestAdminOrderHandlersListFiltersByUser(t *testing.T) {
	var captured services.OrderListFilter
	service := &stubOrderService{
		listFn: func(_ context.Context, filter services.OrderListFilter) ([]services.Order, error) {
			captured = filter
			return nil, nil
		},
	}

	router := newAdminOrderRouter(service, &stubPaymentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders?user_id=user-7&payment_status=unpaid", nil)
	req = withTestIdentity(req, "admin-1", auth.RoleAdmin)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.UserID != "user-7" {
		t.Fatalf("expected user filter user-7, got %s", captured.UserID)
	}
	if len(captured.PaymentStatus) != 1 || captured.PaymentStatus[0] != domain.PaymentStatusUnpaid {
		t.Fatalf("unexpected payment status filter: %v", captured.PaymentStatus)
	}
}
