package payments

import (
	"context"
	"errors"
)

// ErrSignatureMismatch is returned when a gateway callback signature does not verify.
var ErrSignatureMismatch = errors.New("payments: signature mismatch")

// GatewayOrderRequest captures the payload required to open an order at the gateway.
type GatewayOrderRequest struct {
	// OrderID is the local order identifier, forwarded as the gateway receipt.
	OrderID string
	// Amount is the order total in whole rupees. Providers convert to
	// their minor unit at the boundary.
	Amount int64
	// Currency is the ISO code, defaulted by the provider when empty.
	Currency string
	Notes    map[string]string
}

// GatewayOrder is the remote order handle returned by the gateway.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Raw      map[string]any
}

// VerificationInput carries the gateway callback fields for signature verification.
type VerificationInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// Provider defines the contract for payment gateway adapters.
type Provider interface {
	// CreateOrder opens a remote order and returns its gateway handle.
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error)
	// VerifySignature checks the callback signature, returning
	// ErrSignatureMismatch when it does not verify.
	VerifySignature(input VerificationInput) error
}
