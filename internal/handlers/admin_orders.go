package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

// AdminOrderHandlers exposes the staff order management surface.
type AdminOrderHandlers struct {
	orders   services.OrderService
	payments services.PaymentService
	audit    services.AuditLogService
}

// NewAdminOrderHandlers constructs a new AdminOrderHandlers instance.
func NewAdminOrderHandlers(orders services.OrderService, payments services.PaymentService, audit services.AuditLogService) *AdminOrderHandlers {
	return &AdminOrderHandlers{
		orders:   orders,
		payments: payments,
		audit:    audit,
	}
}

// Routes registers the /admin/orders endpoints.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders/{orderID}:status", h.changeStatus)
	r.Post("/orders/{orderID}:markPaid", h.markPaid)
	r.Post("/orders/{orderID}:approveCancel", h.approveCancel)
	r.Delete("/orders/{orderID}", h.deleteOrder)
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requireIdentity(ctx, w) == nil {
		return
	}

	query := r.URL.Query()

	statuses, ok := parseOrderStatuses(parseFilterValues(query["status"]))
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status filter contains an unknown status", http.StatusBadRequest))
		return
	}
	paymentStatuses, ok := parsePaymentStatuses(parseFilterValues(query["payment_status"]))
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "payment_status filter contains an unknown status", http.StatusBadRequest))
		return
	}

	filter := services.OrderListFilter{
		UserID:        strings.TrimSpace(query.Get("user_id")),
		Status:        statuses,
		PaymentStatus: paymentStatuses,
		Sort:          parseSortOrder(query.Get("sort")),
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(orders))
}

func (h *AdminOrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requireIdentity(ctx, w) == nil {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{AdminAccess: true})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req changeStatusRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	target := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if _, ok := validOrderStatuses[target]; !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be a valid order status", http.StatusBadRequest))
		return
	}

	order, err := h.orders.ChangeStatus(ctx, services.ChangeOrderStatusCommand{
		OrderID: orderID,
		Target:  target,
		Actor:   identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	h.record(r, identity, "order.status_changed", orderID, map[string]any{"status": string(target)})
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminOrderHandlers) markPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.payments.MarkCodPaid(ctx, services.MarkPaidCommand{
		OrderID: orderID,
		Actor:   identity.UID,
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	h.record(r, identity, "order.marked_paid", orderID, nil)
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminOrderHandlers) approveCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.ApproveCancel(ctx, services.ApproveCancelCommand{
		OrderID: orderID,
		Actor:   identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	h.record(r, identity, "order.cancel_approved", orderID, nil)
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminOrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	if err := h.orders.DeleteOrder(ctx, services.DeleteOrderCommand{
		OrderID: orderID,
		Actor:   identity.UID,
	}); err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	h.record(r, identity, "order.deleted", orderID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminOrderHandlers) record(r *http.Request, identity *auth.Identity, action, targetRef string, metadata map[string]any) {
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
