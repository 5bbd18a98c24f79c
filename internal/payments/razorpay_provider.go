package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayLogger defines the logging contract for gateway operations.
type RazorpayLogger func(ctx context.Context, event string, fields map[string]any)

type razorpayOrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayProviderConfig configures the RazorpayProvider.
type RazorpayProviderConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
	Logger    RazorpayLogger
	// Orders overrides the SDK order client, used by tests.
	Orders razorpayOrderAPI
}

// RazorpayProvider implements the Provider interface against the Razorpay Orders API.
type RazorpayProvider struct {
	orders   razorpayOrderAPI
	secret   []byte
	currency string
	logger   RazorpayLogger
}

// NewRazorpayProvider constructs a Razorpay-backed Provider.
func NewRazorpayProvider(cfg RazorpayProviderConfig) (*RazorpayProvider, error) {
	secret := strings.TrimSpace(cfg.KeySecret)
	if secret == "" {
		return nil, errors.New("razorpay: key secret is required")
	}

	orders := cfg.Orders
	if orders == nil {
		keyID := strings.TrimSpace(cfg.KeyID)
		if keyID == "" {
			return nil, errors.New("razorpay: key id is required")
		}
		client := razorpay.NewClient(keyID, secret)
		orders = client.Order
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &RazorpayProvider{
		orders:   orders,
		secret:   []byte(secret),
		currency: currency,
		logger:   logger,
	}, nil
}

// CreateOrder opens a gateway order. Amounts are converted from rupees to paise.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error) {
	if p == nil {
		return GatewayOrder{}, errors.New("razorpay: provider is nil")
	}
	if req.Amount <= 0 {
		return GatewayOrder{}, fmt.Errorf("razorpay: amount must be positive, got %d", req.Amount)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = p.currency
	}

	amountPaise := req.Amount * 100
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  req.OrderID,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	raw, err := p.orders.Create(data, nil)
	if err != nil {
		p.logger(ctx, "razorpay.order.create_failed", map[string]any{
			"receipt": req.OrderID,
			"error":   err.Error(),
		})
		return GatewayOrder{}, fmt.Errorf("razorpay: create order: %w", err)
	}

	id, _ := raw["id"].(string)
	if strings.TrimSpace(id) == "" {
		return GatewayOrder{}, errors.New("razorpay: order response missing id")
	}

	p.logger(ctx, "razorpay.order.created", map[string]any{
		"receipt":         req.OrderID,
		"gateway_order":   id,
		"amount_in_paise": amountPaise,
	})

	return GatewayOrder{
		ID:       id,
		Amount:   amountPaise,
		Currency: currency,
		Raw:      raw,
	}, nil
}

// VerifySignature recomputes the callback HMAC over "orderID|paymentID"
// and compares in constant time.
func (p *RazorpayProvider) VerifySignature(input VerificationInput) error {
	if p == nil {
		return errors.New("razorpay: provider is nil")
	}
	orderID := strings.TrimSpace(input.GatewayOrderID)
	paymentID := strings.TrimSpace(input.GatewayPaymentID)
	signature := strings.TrimSpace(input.Signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrSignatureMismatch
	}

	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Ensure interface compliance.
var _ Provider = (*RazorpayProvider)(nil)
