package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/payments"
	"github.com/raman-prints/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the requester does not own the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderInvalidState indicates a disallowed status transition or workflow step.
	ErrOrderInvalidState = errors.New("order: invalid state")
	// ErrOrderConflict indicates duplicate requests or concurrent updates.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderingDisabled indicates the shop is not accepting orders.
	ErrOrderingDisabled = errors.New("order: ordering disabled")
)

const orderIDPrefix = "ord_"

// OrderServiceDeps bundles constructor inputs for the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	OrderLogs   repositories.OrderLogRepository
	Settings    repositories.SettingsRepository
	Gateway     payments.Provider
	Files       StoredFileRemover
	Events      OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Sanitize    func(string) string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	orderLogs repositories.OrderLogRepository
	settings  repositories.SettingsRepository
	gateway   payments.Provider
	files     StoredFileRemover
	events    OrderEventPublisher
	clock     func() time.Time
	newID     func() string
	sanitize  func(string) string
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.OrderLogs == nil {
		return nil, errors.New("order service: order log repository is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("order service: settings repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return orderIDPrefix + ulid.Make().String()
		}
	}

	sanitize := deps.Sanitize
	if sanitize == nil {
		sanitize = strings.TrimSpace
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		orderLogs: deps.OrderLogs,
		settings:  deps.Settings,
		gateway:   deps.Gateway,
		files:     deps.Files,
		events:    deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:    idGen,
		sanitize: sanitize,
		logger:   logger,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Files) == 0 {
		return Order{}, fmt.Errorf("%w: at least one file is required", ErrOrderInvalidInput)
	}
	for i, file := range cmd.Files {
		if strings.TrimSpace(file.Name) == "" || strings.TrimSpace(file.URL) == "" {
			return Order{}, fmt.Errorf("%w: file %d is missing name or url", ErrOrderInvalidInput, i)
		}
	}
	if len(cmd.Services) == 0 {
		return Order{}, fmt.Errorf("%w: at least one service item is required", ErrOrderInvalidInput)
	}
	for i, line := range cmd.Services {
		if strings.TrimSpace(line.Name) == "" {
			return Order{}, fmt.Errorf("%w: service %d is missing a name", ErrOrderInvalidInput, i)
		}
		if line.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: service %q quantity must be at least 1", ErrOrderInvalidInput, line.Name)
		}
		if line.UnitPrice < 0 {
			return Order{}, fmt.Errorf("%w: service %q price cannot be negative", ErrOrderInvalidInput, line.Name)
		}
	}
	if cmd.PaymentMethod != domain.PaymentMethodOnline && cmd.PaymentMethod != domain.PaymentMethodCOD {
		return Order{}, fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}
	if cmd.PrintSide != domain.PrintSideSingle && cmd.PrintSide != domain.PrintSideDouble {
		return Order{}, fmt.Errorf("%w: unsupported print side %q", ErrOrderInvalidInput, cmd.PrintSide)
	}

	total := recomputeTotal(cmd.Services)
	if total <= 0 {
		return Order{}, fmt.Errorf("%w: order total must be positive", ErrOrderInvalidInput)
	}
	if cmd.DeclaredTotal != total {
		return Order{}, fmt.Errorf("%w: declared total %d does not match computed total %d", ErrOrderInvalidInput, cmd.DeclaredTotal, total)
	}

	settings, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if !settings.IsServiceAvailable {
		return Order{}, ErrOrderingDisabled
	}
	if cmd.PaymentMethod == domain.PaymentMethodCOD && !settings.IsCodEnabled {
		return Order{}, fmt.Errorf("%w: cash on delivery is disabled", ErrOrderInvalidInput)
	}

	now := s.clock()
	order := Order{
		ID:            s.newID(),
		UserID:        userID,
		Files:         append([]OrderFile(nil), cmd.Files...),
		Services:      append([]ServiceLine(nil), cmd.Services...),
		TotalAmount:   total,
		PaymentMethod: cmd.PaymentMethod,
		Status:        domain.OrderStatusPending,
		PrintSide:     cmd.PrintSide,
		Message:       s.sanitize(cmd.Message),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch cmd.PaymentMethod {
	case domain.PaymentMethodCOD:
		order.PaymentStatus = domain.PaymentStatusUnpaid
	default:
		order.PaymentStatus = domain.PaymentStatusPending
	}

	if cmd.PaymentMethod == domain.PaymentMethodOnline && s.gateway != nil {
		gw, err := s.gateway.CreateOrder(ctx, payments.GatewayOrderRequest{
			OrderID: order.ID,
			Amount:  total,
			Notes:   map[string]string{"userId": userID},
		})
		if err != nil {
			// The order still goes through; payment can be retried later.
			s.logger(ctx, "order.gateway_order_failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		} else {
			order.GatewayOrderID = gw.ID
		}
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if err := s.settings.ApplyDeltas(ctx, CounterDeltas{TotalOrders: 1}); err != nil {
		// The stats read seeds totalOrders from the ledger when the
		// counter lags, so this is safe to log and move on.
		s.logger(ctx, "order.counter_increment_failed", map[string]any{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	if err := s.orderLogs.Append(ctx, OrderLogEntry{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}); err != nil && !isConflict(err) {
		s.logger(ctx, "order.ledger_append_failed", map[string]any{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	s.publish(ctx, OrderEvent{
		Type:          OrderEventCreated,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Amount:        order.TotalAmount,
		OccurredAt:    now,
	})

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	orders, err := s.orders.List(ctx, repositories.OrderListFilter{
		UserID:        strings.TrimSpace(filter.UserID),
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
		Sort:          filter.Sort,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, opts OrderReadOptions) (Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !opts.AdminAccess && order.UserID != strings.TrimSpace(opts.RequesterID) {
		return Order{}, ErrOrderForbidden
	}
	return order, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, cmd ChangeOrderStatusCommand) (Order, error) {
	target := cmd.Target
	switch target {
	case domain.OrderStatusPending, domain.OrderStatusPrinting, domain.OrderStatusReady,
		domain.OrderStatusCompleted, domain.OrderStatusCancelled:
	default:
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, target)
	}

	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}

	if order.Status == target {
		return order, nil
	}
	if !domain.CanTransition(order.Status, target) {
		return Order{}, fmt.Errorf("%w: cannot move %q from %q to %q", ErrOrderInvalidState, order.ID, order.Status, target)
	}

	deltas := transitionDeltas(order, target)

	order.Status = target
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	// A retry after this point sees the stored status already moved, so
	// the transition check above keeps the increments from repeating.
	if err := s.settings.ApplyDeltas(ctx, deltas); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publish(ctx, OrderEvent{
		Type:          OrderEventStatusChanged,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Amount:        order.TotalAmount,
		OccurredAt:    order.UpdatedAt,
	})

	return order, nil
}

func (s *orderService) RequestCancel(ctx context.Context, cmd CancelRequestCommand) (Order, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != strings.TrimSpace(cmd.UserID) {
		return Order{}, ErrOrderForbidden
	}
	if order.Status != domain.OrderStatusPending {
		return Order{}, fmt.Errorf("%w: only pending orders can request cancellation", ErrOrderInvalidState)
	}
	if order.CancelRequested {
		return Order{}, fmt.Errorf("%w: cancellation already requested", ErrOrderConflict)
	}

	now := s.clock()
	order.CancelRequested = true
	order.CancelRequestedAt = &now
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) UndoCancelRequest(ctx context.Context, cmd CancelRequestCommand) (Order, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != strings.TrimSpace(cmd.UserID) {
		return Order{}, ErrOrderForbidden
	}
	if !order.CancelRequested {
		return Order{}, fmt.Errorf("%w: no cancellation requested", ErrOrderInvalidState)
	}
	if order.CancelApprovedByAdmin {
		return Order{}, fmt.Errorf("%w: cancellation already approved", ErrOrderInvalidState)
	}

	order.CancelRequested = false
	order.CancelRequestedAt = nil
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ApproveCancel(ctx context.Context, cmd ApproveCancelCommand) (Order, error) {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if !order.CancelRequested {
		return Order{}, fmt.Errorf("%w: no cancellation requested", ErrOrderInvalidState)
	}
	if order.Status == domain.OrderStatusCancelled {
		return order, nil
	}
	if !domain.CanTransition(order.Status, domain.OrderStatusCancelled) {
		return Order{}, fmt.Errorf("%w: order %q in status %q cannot be cancelled", ErrOrderInvalidState, order.ID, order.Status)
	}

	deltas := transitionDeltas(order, domain.OrderStatusCancelled)

	order.Status = domain.OrderStatusCancelled
	order.CancelApprovedByAdmin = true
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if err := s.settings.ApplyDeltas(ctx, deltas); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publish(ctx, OrderEvent{
		Type:          OrderEventStatusChanged,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Amount:        order.TotalAmount,
		OccurredAt:    order.UpdatedAt,
	})

	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error {
	order, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return err
	}

	if s.files != nil {
		for _, file := range order.Files {
			if strings.TrimSpace(file.URL) == "" {
				continue
			}
			if err := s.files.Remove(ctx, file.URL); err != nil {
				s.logger(ctx, "order.file_delete_failed", map[string]any{
					"order_id": order.ID,
					"file":     file.Name,
					"error":    err.Error(),
				})
			}
		}
	}

	// The ledger entry stays; lifetime statistics survive deletion.
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		return s.mapRepositoryError(err)
	}

	s.publish(ctx, OrderEvent{
		Type:          OrderEventDeleted,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Amount:        order.TotalAmount,
		OccurredAt:    s.clock(),
	})

	return nil
}

func (s *orderService) loadOrder(ctx context.Context, orderID string) (Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"order_id": event.OrderID,
			"type":     event.Type,
			"error":    err.Error(),
		})
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

// transitionDeltas computes the counter side effects of moving order to
// target. Increments fire only on first entry into a terminal state.
func transitionDeltas(order Order, target OrderStatus) CounterDeltas {
	var deltas CounterDeltas
	if target == domain.OrderStatusCompleted && order.Status != domain.OrderStatusCompleted {
		deltas.CompletedOrders = 1
		if order.PaymentStatus == domain.PaymentStatusPaid {
			deltas.TotalRevenue = order.TotalAmount
		}
	}
	if target == domain.OrderStatusCancelled && order.Status != domain.OrderStatusCancelled {
		deltas.CancelledOrders = 1
	}
	return deltas
}

func recomputeTotal(lines []ServiceLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.Total()
	}
	return total
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
