package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/platform/auth"
	"github.com/raman-prints/api/internal/platform/httpx"
	"github.com/raman-prints/api/internal/services"
)

const maxOrderBodySize = 256 * 1024

var validOrderStatuses = map[domain.OrderStatus]struct{}{
	domain.OrderStatusPending:   {},
	domain.OrderStatusPrinting:  {},
	domain.OrderStatusReady:     {},
	domain.OrderStatusCompleted: {},
	domain.OrderStatusCancelled: {},
}

var validPaymentStatuses = map[domain.PaymentStatus]struct{}{
	domain.PaymentStatusPending: {},
	domain.PaymentStatusPaid:    {},
	domain.PaymentStatusUnpaid:  {},
	domain.PaymentStatusFailed:  {},
}

// OrderHandlers exposes the order lifecycle endpoints for authenticated customers.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
	users  services.UserService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, users services.UserService) *OrderHandlers {
	return &OrderHandlers{
		authn:  authn,
		orders: orders,
		users:  users,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}:requestCancel", h.requestCancel)
	r.Post("/{orderID}:undoCancel", h.undoCancel)
}

type orderFileRequest struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
}

type serviceLineRequest struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Files         []orderFileRequest   `json:"files"`
	Services      []serviceLineRequest `json:"services"`
	TotalAmount   int64                `json:"total_amount"`
	PaymentMethod string               `json:"payment_method"`
	PrintSide     string               `json:"print_side"`
	Message       string               `json:"message"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if h.users != nil {
		if _, err := h.users.RequireActiveUser(ctx, identity.UID); err != nil {
			writeUserGateError(ctx, w, err)
			return
		}
	}

	cmd := services.CreateOrderCommand{
		UserID:        identity.UID,
		DeclaredTotal: req.TotalAmount,
		PaymentMethod: domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))),
		PrintSide:     domain.PrintSide(strings.ToUpper(strings.TrimSpace(req.PrintSide))),
		Message:       req.Message,
	}
	for _, file := range req.Files {
		cmd.Files = append(cmd.Files, services.OrderFile{
			Name:      strings.TrimSpace(file.Name),
			URL:       strings.TrimSpace(file.URL),
			SizeBytes: file.SizeBytes,
		})
	}
	for _, line := range req.Services {
		cmd.Services = append(cmd.Services, services.ServiceLine{
			Name:      strings.TrimSpace(line.Name),
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requireIdentity(ctx, w)
	if identity == nil {
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
		UserID:        identity.UID,
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

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.orders.GetOrder(ctx, orderID, services.OrderReadOptions{RequesterID: identity.UID})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) requestCancel(w http.ResponseWriter, r *http.Request) {
	h.cancelRequest(w, r, h.ordersRequestCancel)
}

func (h *OrderHandlers) undoCancel(w http.ResponseWriter, r *http.Request) {
	h.cancelRequest(w, r, h.ordersUndoCancel)
}

func (h *OrderHandlers) ordersRequestCancel(ctx context.Context, cmd services.CancelRequestCommand) (services.Order, error) {
	return h.orders.RequestCancel(ctx, cmd)
}

func (h *OrderHandlers) ordersUndoCancel(ctx context.Context, cmd services.CancelRequestCommand) (services.Order, error) {
	return h.orders.UndoCancelRequest(ctx, cmd)
}

func (h *OrderHandlers) cancelRequest(w http.ResponseWriter, r *http.Request, op func(context.Context, services.CancelRequestCommand) (services.Order, error)) {
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

	order, err := op(ctx, services.CancelRequestCommand{OrderID: orderID, UserID: identity.UID})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type orderListResponse struct {
	Items []orderPayload `json:"items"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderFilePayload struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

type serviceLinePayload struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Total     int64  `json:"total"`
}

type orderPayload struct {
	ID                string               `json:"id"`
	UserID            string               `json:"user_id"`
	Files             []orderFilePayload   `json:"files"`
	Services          []serviceLinePayload `json:"services"`
	TotalAmount       int64                `json:"total_amount"`
	PaymentMethod     string               `json:"payment_method"`
	Status            string               `json:"status"`
	PaymentStatus     string               `json:"payment_status"`
	PrintSide         string               `json:"print_side"`
	Message           string               `json:"message,omitempty"`
	GatewayOrderID    string               `json:"gateway_order_id,omitempty"`
	GatewayPaymentID  string               `json:"gateway_payment_id,omitempty"`
	CancelRequested   bool                 `json:"cancel_requested"`
	CancelRequestedAt string               `json:"cancel_requested_at,omitempty"`
	CancelApproved    bool                 `json:"cancel_approved,omitempty"`
	CreatedAt         string               `json:"created_at"`
	UpdatedAt         string               `json:"updated_at,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:                strings.TrimSpace(order.ID),
		UserID:            strings.TrimSpace(order.UserID),
		Files:             make([]orderFilePayload, 0, len(order.Files)),
		Services:          make([]serviceLinePayload, 0, len(order.Services)),
		TotalAmount:       order.TotalAmount,
		PaymentMethod:     string(order.PaymentMethod),
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		PrintSide:         string(order.PrintSide),
		Message:           order.Message,
		GatewayOrderID:    strings.TrimSpace(order.GatewayOrderID),
		GatewayPaymentID:  strings.TrimSpace(order.GatewayPaymentID),
		CancelRequested:   order.CancelRequested,
		CancelRequestedAt: formatTime(pointerTime(order.CancelRequestedAt)),
		CancelApproved:    order.CancelApprovedByAdmin,
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
	for _, file := range order.Files {
		payload.Files = append(payload.Files, orderFilePayload{
			Name:      file.Name,
			URL:       file.URL,
			SizeBytes: file.SizeBytes,
		})
	}
	for _, line := range order.Services {
		payload.Services = append(payload.Services, serviceLinePayload{
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Total:     line.Total(),
		})
	}
	return payload
}

func buildOrderListResponse(orders []services.Order) orderListResponse {
	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderPayload(order))
	}
	return orderListResponse{Items: items}
}

func requireIdentity(ctx context.Context, w http.ResponseWriter) *auth.Identity {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil
	}
	return identity
}

func parseOrderStatuses(values []string) ([]services.OrderStatus, bool) {
	if len(values) == 0 {
		return nil, true
	}
	result := make([]services.OrderStatus, 0, len(values))
	for _, value := range values {
		status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
		if _, ok := validOrderStatuses[status]; !ok {
			return nil, false
		}
		result = append(result, status)
	}
	return result, true
}

func parsePaymentStatuses(values []string) ([]services.PaymentStatus, bool) {
	if len(values) == 0 {
		return nil, true
	}
	result := make([]services.PaymentStatus, 0, len(values))
	for _, value := range values {
		status := domain.PaymentStatus(strings.ToUpper(strings.TrimSpace(value)))
		if _, ok := validPaymentStatuses[status]; !ok {
			return nil, false
		}
		result = append(result, status)
	}
	return result, true
}

func parseSortOrder(raw string) domain.SortOrder {
	if strings.EqualFold(strings.TrimSpace(raw), string(domain.SortAsc)) {
		return domain.SortAsc
	}
	return domain.SortDesc
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeUserGateError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotVerified):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_verified", "account is awaiting verification", http.StatusForbidden))
	case errors.Is(err, services.ErrUserDeleted):
		httpx.WriteError(ctx, w, httpx.NewError("account_deleted", "account has been deleted", http.StatusForbidden))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "account not found", http.StatusForbidden))
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to verify account status", http.StatusInternalServerError))
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderForbidden), errors.Is(err, services.ErrOrderNotFound):
		// Ownership failures read as not found so order IDs stay unguessable.
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderingDisabled):
		httpx.WriteError(ctx, w, httpx.NewError("ordering_disabled", "the shop is not accepting orders right now", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
