package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/payments"
)

func newPaymentServiceForTest(t *testing.T, deps PaymentServiceDeps) PaymentService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.Settings == nil {
		deps.Settings = &stubSettingsRepo{}
	}
	if deps.Gateway == nil {
		deps.Gateway = &stubGateway{}
	}
	if deps.Clock == nil {
		deps.Clock = testClock
	}
	svc, err := NewPaymentService(deps)
	if err != nil {
		t.Fatalf("new payment service: %v", err)
	}
	return svc
}

func TestVerifyOnlinePaymentSuccess(t *testing.T) {
	stored := domain.Order{
		ID:             "ord_1",
		UserID:         "user-1",
		TotalAmount:    120,
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentMethod:  domain.PaymentMethodOnline,
		GatewayOrderID: "order_gw1",
	}
	var updated domain.Order
	var deltas []CounterDeltas
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
		Orders: &stubOrderRepo{
			findByGatewayFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateFn: func(_ context.Context, order domain.Order) error {
				updated = order
				return nil
			},
		},
		Settings: &stubSettingsRepo{
			applyFn: func(_ context.Context, d domain.CounterDeltas) error {
				deltas = append(deltas, d)
				return nil
			},
		},
	})

	order, err := svc.VerifyOnlinePayment(context.Background(), VerifyPaymentCommand{
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", order.PaymentStatus)
	}
	if order.GatewayPaymentID != "pay_1" {
		t.Fatalf("expected payment id stored, got %q", order.GatewayPaymentID)
	}
	if updated.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatal("expected PAID persisted")
	}
	// Revenue fires on completion, not here: the order is still pending.
	if len(deltas) != 0 {
		t.Fatalf("expected no revenue delta for pending order, got %+v", deltas)
	}
}

func TestVerifyOnlinePaymentCompletedOrderRecognisesRevenue(t *testing.T) {
	stored := domain.Order{
		ID:             "ord_1",
		TotalAmount:    120,
		Status:         domain.OrderStatusCompleted,
		PaymentStatus:  domain.PaymentStatusPending,
		GatewayOrderID: "order_gw1",
	}
	var deltas []CounterDeltas
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
		Orders: &stubOrderRepo{
			findByGatewayFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Settings: &stubSettingsRepo{
			applyFn: func(_ context.Context, d domain.CounterDeltas) error {
				deltas = append(deltas, d)
				return nil
			},
		},
	})

	if _, err := svc.VerifyOnlinePayment(context.Background(), VerifyPaymentCommand{
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	}); err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if len(deltas) != 1 || deltas[0].TotalRevenue != 120 {
		t.Fatalf("expected one revenue delta of 120, got %+v", deltas)
	}
}

func TestVerifyOnlinePaymentAlreadyPaidIsIdempotent(t *testing.T) {
	stored := domain.Order{
		ID:             "ord_1",
		TotalAmount:    120,
		Status:         domain.OrderStatusCompleted,
		PaymentStatus:  domain.PaymentStatusPaid,
		GatewayOrderID: "order_gw1",
	}
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
		Orders: &stubOrderRepo{
			findByGatewayFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateFn: func(context.Context, domain.Order) error {
				t.Fatal("paid order must not be updated again")
				return nil
			},
		},
		Settings: &stubSettingsRepo{
			applyFn: func(context.Context, domain.CounterDeltas) error {
				t.Fatal("revenue must not be recognised twice")
				return nil
			},
		},
	})

	order, err := svc.VerifyOnlinePayment(context.Background(), VerifyPaymentCommand{
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", order.PaymentStatus)
	}
}

func TestVerifyOnlinePaymentBadSignatureLeavesOrderUntouched(t *testing.T) {
	stored := domain.Order{
		ID:             "ord_1",
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		GatewayOrderID: "order_gw1",
	}
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
		Orders: &stubOrderRepo{
			findByGatewayFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateFn: func(context.Context, domain.Order) error {
				t.Fatal("order must not be written on signature mismatch")
				return nil
			},
		},
		Settings: &stubSettingsRepo{
			applyFn: func(context.Context, domain.CounterDeltas) error {
				t.Fatal("counters must not move on signature mismatch")
				return nil
			},
		},
		Gateway: &stubGateway{
			verifyFn: func(payments.VerificationInput) error {
				return payments.ErrSignatureMismatch
			},
		},
	})

	if _, err := svc.VerifyOnlinePayment(context.Background(), VerifyPaymentCommand{
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		Signature:        "bad",
	}); !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}
}

func TestVerifyOnlinePaymentUnknownOrder(t *testing.T) {
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
		Orders: &stubOrderRepo{
			findByGatewayFn: func(context.Context, string) (domain.Order, error) {
				return domain.Order{}, errRepoNotFound
			},
		},
	})

	if _, err := svc.VerifyOnlinePayment(context.Background(), VerifyPaymentCommand{
		GatewayOrderID:   "order_unknown",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	}); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkCodPaid(t *testing.T) {
	stored := domain.Order{
		ID:            "ord_1",
		TotalAmount:   80,
		Status:        domain.OrderStatusCompleted,
		PaymentStatus: domain.PaymentStatusUnpaid,
		PaymentMethod: domain.PaymentMethodCOD,
	}
	var deltas []CounterDeltas
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
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

	order, err := svc.MarkCodPaid(context.Background(), MarkPaidCommand{OrderID: "ord_1", Actor: "admin-1"})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", order.PaymentStatus)
	}
	if len(deltas) != 1 || deltas[0].TotalRevenue != 80 {
		t.Fatalf("expected revenue delta of 80, got %+v", deltas)
	}
}

func TestMarkCodPaidRejectsOnlineOrders(t *testing.T) {
	stored := domain.Order{
		ID:            "ord_1",
		PaymentMethod: domain.PaymentMethodOnline,
		PaymentStatus: domain.PaymentStatusPending,
	}
	svc := newPaymentServiceForTest(t, PaymentServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
	})

	if _, err := svc.MarkCodPaid(context.Background(), MarkPaidCommand{OrderID: "ord_1"}); !errors.Is(err, ErrPaymentInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}
