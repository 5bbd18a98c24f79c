package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/payments"
)

func validCreateCommand() CreateOrderCommand {
	return CreateOrderCommand{
		UserID: "user-1",
		Files: []OrderFile{
			{Name: "notes.pdf", URL: "https://storage.example/notes.pdf", SizeBytes: 1024},
		},
		Services: []ServiceLine{
			{Name: "Black & White Printing", UnitPrice: 2, Quantity: 50},
		},
		DeclaredTotal: 100,
		PaymentMethod: domain.PaymentMethodCOD,
		PrintSide:     domain.PrintSideSingle,
	}
}

func newOrderServiceForTest(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.OrderLogs == nil {
		deps.OrderLogs = &stubOrderLogRepo{}
	}
	if deps.Settings == nil {
		deps.Settings = &stubSettingsRepo{}
	}
	if deps.Clock == nil {
		deps.Clock = testClock
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func TestCreateOrderCod(t *testing.T) {
	var inserted domain.Order
	var appended domain.OrderLogEntry
	var deltas []CounterDeltas
	publisher := &stubPublisher{}

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			insertFn: func(_ context.Context, order domain.Order) error {
				inserted = order
				return nil
			},
		},
		OrderLogs: &stubOrderLogRepo{
			appendFn: func(_ context.Context, entry domain.OrderLogEntry) error {
				appended = entry
				return nil
			},
		},
		Settings: &stubSettingsRepo{
			applyFn: func(_ context.Context, d domain.CounterDeltas) error {
				deltas = append(deltas, d)
				return nil
			},
		},
		Events: publisher,
	})

	order, err := svc.CreateOrder(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected PENDING status, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("expected UNPAID payment status for cash order, got %s", order.PaymentStatus)
	}
	if order.TotalAmount != 100 {
		t.Fatalf("expected total 100, got %d", order.TotalAmount)
	}
	if inserted.ID == "" || inserted.ID != order.ID {
		t.Fatalf("expected persisted order to match returned order")
	}
	if appended.OrderID != order.ID || appended.TotalAmount != 100 {
		t.Fatalf("expected ledger entry for order, got %+v", appended)
	}
	if len(deltas) != 1 || deltas[0].TotalOrders != 1 {
		t.Fatalf("expected exactly one totalOrders increment, got %+v", deltas)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != OrderEventCreated {
		t.Fatalf("expected one created event, got %+v", publisher.events)
	}
}

func TestCreateOrderOnlineSetsGatewayOrder(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Gateway: &stubGateway{
			createFn: func(_ context.Context, req payments.GatewayOrderRequest) (payments.GatewayOrder, error) {
				if req.Amount != 100 {
					t.Fatalf("expected 100 rupees forwarded to gateway, got %d", req.Amount)
				}
				return payments.GatewayOrder{ID: "order_gw1"}, nil
			},
		},
	})

	cmd := validCreateCommand()
	cmd.PaymentMethod = domain.PaymentMethodOnline

	order, err := svc.CreateOrder(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected PENDING payment status for online order, got %s", order.PaymentStatus)
	}
	if order.GatewayOrderID != "order_gw1" {
		t.Fatalf("expected gateway order id, got %q", order.GatewayOrderID)
	}
}

func TestCreateOrderDegradesOnGatewayFailure(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Gateway: &stubGateway{
			createFn: func(context.Context, payments.GatewayOrderRequest) (payments.GatewayOrder, error) {
				return payments.GatewayOrder{}, errors.New("gateway down")
			},
		},
	})

	cmd := validCreateCommand()
	cmd.PaymentMethod = domain.PaymentMethodOnline

	order, err := svc.CreateOrder(context.Background(), cmd)
	if err != nil {
		t.Fatalf("expected order despite gateway failure, got %v", err)
	}
	if order.GatewayOrderID != "" {
		t.Fatalf("expected empty gateway order id, got %q", order.GatewayOrderID)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{})

	cases := map[string]func(*CreateOrderCommand){
		"no files":         func(c *CreateOrderCommand) { c.Files = nil },
		"no services":      func(c *CreateOrderCommand) { c.Services = nil },
		"zero quantity":    func(c *CreateOrderCommand) { c.Services[0].Quantity = 0 },
		"bad method":       func(c *CreateOrderCommand) { c.PaymentMethod = "CHEQUE" },
		"bad side":         func(c *CreateOrderCommand) { c.PrintSide = "TRIPLE" },
		"total mismatch":   func(c *CreateOrderCommand) { c.DeclaredTotal = 999 },
		"zero price total": func(c *CreateOrderCommand) { c.Services[0].UnitPrice = 0; c.DeclaredTotal = 0 },
	}
	for name, mutate := range cases {
		cmd := validCreateCommand()
		mutate(&cmd)
		if _, err := svc.CreateOrder(context.Background(), cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}

func TestCreateOrderRespectsShopFlags(t *testing.T) {
	closed := domain.DefaultSettings(testClock())
	closed.IsServiceAvailable = false
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Settings: &stubSettingsRepo{
			getFn: func(context.Context) (domain.Settings, error) { return closed, nil },
		},
	})
	if _, err := svc.CreateOrder(context.Background(), validCreateCommand()); !errors.Is(err, ErrOrderingDisabled) {
		t.Fatalf("expected ordering disabled, got %v", err)
	}

	noCod := domain.DefaultSettings(testClock())
	noCod.IsCodEnabled = false
	svc = newOrderServiceForTest(t, OrderServiceDeps{
		Settings: &stubSettingsRepo{
			getFn: func(context.Context) (domain.Settings, error) { return noCod, nil },
		},
	})
	if _, err := svc.CreateOrder(context.Background(), validCreateCommand()); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input when cash is disabled, got %v", err)
	}
}

func TestChangeStatusCompletedPaidAddsRevenue(t *testing.T) {
	stored := domain.Order{
		ID:            "ord_1",
		UserID:        "user-1",
		TotalAmount:   250,
		Status:        domain.OrderStatusReady,
		PaymentStatus: domain.PaymentStatusPaid,
	}
	var deltas []CounterDeltas
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Settings: &stubSettingsRepo{
			applyFn: func(_ context.Context, d domain.CounterDeltas) error {
				deltas = append(deltas, d)
				return nil
			},
		},
	})

	order, err := svc.ChangeStatus(context.Background(), ChangeOrderStatusCommand{
		OrderID: "ord_1",
		Target:  domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", order.Status)
	}
	if len(deltas) != 1 {
		t.Fatalf("expected exactly one delta application, got %d", len(deltas))
	}
	if deltas[0].CompletedOrders != 1 || deltas[0].TotalRevenue != 250 {
		t.Fatalf("expected completed+revenue deltas, got %+v", deltas[0])
	}
}

func TestChangeStatusCompletedUnpaidSkipsRevenue(t *testing.T) {
	stored := domain.Order{
		ID:            "ord_1",
		TotalAmount:   250,
		Status:        domain.OrderStatusReady,
		PaymentStatus: domain.PaymentStatusUnpaid,
	}
	var deltas []CounterDeltas
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Settings: &stubSettingsRepo{
			applyFn: func(_ context.Context, d domain.CounterDeltas) error {
				deltas = append(deltas, d)
				return nil
			},
		},
	})

	if _, err := svc.ChangeStatus(context.Background(), ChangeOrderStatusCommand{
		OrderID: "ord_1",
		Target:  domain.OrderStatusCompleted,
	}); err != nil {
		t.Fatalf("change status: %v", err)
	}
	if len(deltas) != 1 || deltas[0].TotalRevenue != 0 || deltas[0].CompletedOrders != 1 {
		t.Fatalf("expected completed delta without revenue, got %+v", deltas)
	}
}

func TestChangeStatusRejectsClosedTransitions(t *testing.T) {
	cases := []struct {
		from, to domain.OrderStatus
	}{
		{domain.OrderStatusCompleted, domain.OrderStatusPending},
		{domain.OrderStatusCancelled, domain.OrderStatusPrinting},
		{domain.OrderStatusPrinting, domain.OrderStatusPending},
		{domain.OrderStatusReady, domain.OrderStatusPrinting},
	}
	for _, tc := range cases {
		stored := domain.Order{ID: "ord_1", Status: tc.from}
		svc := newOrderServiceForTest(t, OrderServiceDeps{
			Orders: &stubOrderRepo{
				findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			},
		})
		if _, err := svc.ChangeStatus(context.Background(), ChangeOrderStatusCommand{
			OrderID: "ord_1",
			Target:  tc.to,
		}); !errors.Is(err, ErrOrderInvalidState) {
			t.Fatalf("%s -> %s: expected invalid state, got %v", tc.from, tc.to, err)
		}
	}
}

func TestChangeStatusSameStatusIsNoOp(t *testing.T) {
	stored := domain.Order{ID: "ord_1", Status: domain.OrderStatusCompleted}
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateFn: func(context.Context, domain.Order) error {
				t.Fatal("update should not be called")
				return nil
			},
		},
		Settings: &stubSettingsRepo{
			applyFn: func(context.Context, domain.CounterDeltas) error {
				t.Fatal("deltas should not be applied")
				return nil
			},
		},
	})

	if _, err := svc.ChangeStatus(context.Background(), ChangeOrderStatusCommand{
		OrderID: "ord_1",
		Target:  domain.OrderStatusCompleted,
	}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestRequestCancelFlow(t *testing.T) {
	stored := domain.Order{ID: "ord_1", UserID: "user-1", Status: domain.OrderStatusPending}
	var updated domain.Order
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateFn: func(_ context.Context, order domain.Order) error {
				updated = order
				return nil
			},
		},
	})

	order, err := svc.RequestCancel(context.Background(), CancelRequestCommand{OrderID: "ord_1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("request cancel: %v", err)
	}
	if !order.CancelRequested || order.CancelRequestedAt == nil {
		t.Fatalf("expected cancel request recorded, got %+v", order)
	}
	if !updated.CancelRequested {
		t.Fatal("expected cancel flag persisted")
	}

	// Non-owner is rejected.
	if _, err := svc.RequestCancel(context.Background(), CancelRequestCommand{OrderID: "ord_1", UserID: "someone-else"}); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Duplicate requests conflict.
	stored.CancelRequested = true
	if _, err := svc.RequestCancel(context.Background(), CancelRequestCommand{OrderID: "ord_1", UserID: "user-1"}); !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Only pending orders may request cancellation.
	stored.CancelRequested = false
	stored.Status = domain.OrderStatusPrinting
	if _, err := svc.RequestCancel(context.Background(), CancelRequestCommand{OrderID: "ord_1", UserID: "user-1"}); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestUndoCancelBlockedAfterApproval(t *testing.T) {
	now := testClock()
	stored := domain.Order{
		ID:                    "ord_1",
		UserID:                "user-1",
		Status:                domain.OrderStatusPending,
		CancelRequested:       true,
		CancelRequestedAt:     &now,
		CancelApprovedByAdmin: true,
	}
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
	})

	if _, err := svc.UndoCancelRequest(context.Background(), CancelRequestCommand{OrderID: "ord_1", UserID: "user-1"}); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected invalid state after admin approval, got %v", err)
	}

	stored.CancelApprovedByAdmin = false
	order, err := svc.UndoCancelRequest(context.Background(), CancelRequestCommand{OrderID: "ord_1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("undo cancel: %v", err)
	}
	if order.CancelRequested || order.CancelRequestedAt != nil {
		t.Fatalf("expected cancel request cleared, got %+v", order)
	}
}

func TestApproveCancelAppliesCancelledDelta(t *testing.T) {
	now := testClock()
	stored := domain.Order{
		ID:                "ord_1",
		UserID:            "user-1",
		Status:            domain.OrderStatusPending,
		CancelRequested:   true,
		CancelRequestedAt: &now,
	}
	var deltas []CounterDeltas
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Settings: &stubSettingsRepo{
			applyFn: func(_ context.Context, d domain.CounterDeltas) error {
				deltas = append(deltas, d)
				return nil
			},
		},
	})

	order, err := svc.ApproveCancel(context.Background(), ApproveCancelCommand{OrderID: "ord_1", Actor: "admin-1"})
	if err != nil {
		t.Fatalf("approve cancel: %v", err)
	}
	if order.Status != domain.OrderStatusCancelled || !order.CancelApprovedByAdmin {
		t.Fatalf("expected cancelled and locked, got %+v", order)
	}
	if len(deltas) != 1 || deltas[0].CancelledOrders != 1 {
		t.Fatalf("expected one cancelled delta, got %+v", deltas)
	}
}

func TestDeleteOrderRemovesFilesAndKeepsLedger(t *testing.T) {
	stored := domain.Order{
		ID:     "ord_1",
		UserID: "user-1",
		Files: []domain.OrderFile{
			{Name: "a.pdf", URL: "https://storage.example/a.pdf"},
			{Name: "b.pdf", URL: "https://storage.example/b.pdf"},
		},
		Status: domain.OrderStatusCompleted,
	}
	remover := &stubRemover{err: errors.New("object missing")}
	deleted := false
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			deleteFn: func(context.Context, string) error {
				deleted = true
				return nil
			},
		},
		OrderLogs: &stubOrderLogRepo{
			purgeFn: func(context.Context) error {
				t.Fatal("ledger must not be touched by order deletion")
				return nil
			},
		},
		Files: remover,
	})

	if err := svc.DeleteOrder(context.Background(), DeleteOrderCommand{OrderID: "ord_1", Actor: "admin-1"}); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if !deleted {
		t.Fatal("expected order document deleted")
	}
	// Per-file failures are logged and skipped, both removals attempted.
	if len(remover.removed) != 2 {
		t.Fatalf("expected both file removals attempted, got %v", remover.removed)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	stored := domain.Order{ID: "ord_1", UserID: "user-1"}
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
	})

	if _, err := svc.GetOrder(context.Background(), "ord_1", OrderReadOptions{RequesterID: "user-1"}); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetOrder(context.Background(), "ord_1", OrderReadOptions{RequesterID: "user-2"}); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if _, err := svc.GetOrder(context.Background(), "ord_1", OrderReadOptions{AdminAccess: true}); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestGetOrderMapsNotFound(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) {
				return domain.Order{}, errRepoNotFound
			},
		},
	})
	if _, err := svc.GetOrder(context.Background(), "ord_missing", OrderReadOptions{AdminAccess: true}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateOrderIgnoresLedgerConflict(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		OrderLogs: &stubOrderLogRepo{
			appendFn: func(context.Context, domain.OrderLogEntry) error {
				return errRepoConflict
			},
		},
	})
	if _, err := svc.CreateOrder(context.Background(), validCreateCommand()); err != nil {
		t.Fatalf("expected success despite duplicate ledger entry, got %v", err)
	}
}

func TestCreateOrderTimestampsUseClock(t *testing.T) {
	svc := newOrderServiceForTest(t, OrderServiceDeps{Clock: testClock})
	order, err := svc.CreateOrder(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	want := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	if !order.CreatedAt.Equal(want) || !order.UpdatedAt.Equal(want) {
		t.Fatalf("expected clock timestamps, got %v / %v", order.CreatedAt, order.UpdatedAt)
	}
}
