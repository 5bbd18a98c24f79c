package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/raman-prints/api/internal/domain"
	"github.com/raman-prints/api/internal/payments"
	"github.com/raman-prints/api/internal/repositories"
)

var (
	// ErrPaymentInvalidInput signals the caller provided invalid data.
	ErrPaymentInvalidInput = errors.New("payment: invalid input")
	// ErrPaymentNotFound indicates no order matches the gateway reference.
	ErrPaymentNotFound = errors.New("payment: order not found")
	// ErrPaymentSignatureInvalid indicates the callback signature failed verification.
	ErrPaymentSignatureInvalid = errors.New("payment: signature invalid")
	// ErrPaymentInvalidState indicates the order cannot accept this payment action.
	ErrPaymentInvalidState = errors.New("payment: invalid state")
)

// PaymentServiceDeps bundles constructor inputs for the payment service.
type PaymentServiceDeps struct {
	Orders   repositories.OrderRepository
	Settings repositories.SettingsRepository
	Gateway  payments.Provider
	Events   OrderEventPublisher
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type paymentService struct {
	orders   repositories.OrderRepository
	settings repositories.SettingsRepository
	gateway  payments.Provider
	events   OrderEventPublisher
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("payment service: settings repository is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment service: gateway provider is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &paymentService{
		orders:   deps.Orders,
		settings: deps.Settings,
		gateway:  deps.Gateway,
		events:   deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *paymentService) VerifyOnlinePayment(ctx context.Context, cmd VerifyPaymentCommand) (Order, error) {
	gatewayOrderID := strings.TrimSpace(cmd.GatewayOrderID)
	gatewayPaymentID := strings.TrimSpace(cmd.GatewayPaymentID)
	signature := strings.TrimSpace(cmd.Signature)
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return Order{}, fmt.Errorf("%w: gateway order id, payment id, and signature are required", ErrPaymentInvalidInput)
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if err := s.gateway.VerifySignature(payments.VerificationInput{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		Signature:        signature,
	}); err != nil {
		if errors.Is(err, payments.ErrSignatureMismatch) {
			// Rejection leaves the order untouched. A forged callback must
			// not be able to move paymentStatus off its current value.
			s.logger(ctx, "payment.signature_rejected", map[string]any{
				"order_id":      order.ID,
				"gateway_order": gatewayOrderID,
			})
			return Order{}, ErrPaymentSignatureInvalid
		}
		return Order{}, err
	}

	return s.settle(ctx, order, gatewayPaymentID)
}

func (s *paymentService) MarkCodPaid(ctx context.Context, cmd MarkPaidCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrPaymentInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if order.PaymentMethod != domain.PaymentMethodCOD {
		return Order{}, fmt.Errorf("%w: order %q is not cash on delivery", ErrPaymentInvalidState, order.ID)
	}

	return s.settle(ctx, order, "")
}

// settle flips the order to PAID exactly once. Revenue is recognised
// here only when the order already completed; the completion transition
// covers the other ordering.
func (s *paymentService) settle(ctx context.Context, order Order, gatewayPaymentID string) (Order, error) {
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return order, nil
	}

	order.PaymentStatus = domain.PaymentStatusPaid
	if gatewayPaymentID != "" {
		order.GatewayPaymentID = gatewayPaymentID
	}
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if order.Status == domain.OrderStatusCompleted {
		if err := s.settings.ApplyDeltas(ctx, CounterDeltas{TotalRevenue: order.TotalAmount}); err != nil {
			return Order{}, s.mapRepositoryError(err)
		}
	}

	if s.events != nil {
		event := OrderEvent{
			Type:          OrderEventPaymentPaid,
			OrderID:       order.ID,
			UserID:        order.UserID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Amount:        order.TotalAmount,
			OccurredAt:    order.UpdatedAt,
		}
		if err := s.events.PublishOrderEvent(ctx, event); err != nil {
			s.logger(ctx, "payment.event_publish_failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	return order, nil
}

func (s *paymentService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrPaymentNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("payment: repository unavailable: %w", err)
		}
	}

	return err
}
