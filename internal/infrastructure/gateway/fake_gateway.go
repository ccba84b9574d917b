package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// FakeGateway is an in-memory payment.Gateway for development and tests.
// Every operation succeeds; intents move pending -> succeeded on confirm.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]*payment.PaymentIntent
}

// NewFakeGateway creates a new in-memory gateway
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]*payment.PaymentIntent)}
}

// CreatePaymentIntent creates a pending in-memory intent
func (g *FakeGateway) CreatePaymentIntent(ctx context.Context, amount valueobject.Money, metadata map[string]string) (*payment.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent := &payment.PaymentIntent{
		ProviderPaymentID: "fake_pi_" + uuid.NewString(),
		ClientSecret:      "fake_secret_" + uuid.NewString(),
		Status:            "requires_confirmation",
	}
	g.intents[intent.ProviderPaymentID] = intent
	return intent, nil
}

// ConfirmPayment marks the intent as succeeded
func (g *FakeGateway) ConfirmPayment(ctx context.Context, providerPaymentID string) (*payment.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[providerPaymentID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment intent %s", payment.ErrGatewayDeclined, providerPaymentID)
	}
	intent.Status = "succeeded"
	return intent, nil
}

// CancelPayment cancels the intent
func (g *FakeGateway) CancelPayment(ctx context.Context, providerPaymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[providerPaymentID]
	if !ok {
		return fmt.Errorf("%w: unknown payment intent %s", payment.ErrGatewayDeclined, providerPaymentID)
	}
	intent.Status = "canceled"
	return nil
}

// Refund acknowledges a refund against a known intent
func (g *FakeGateway) Refund(ctx context.Context, providerPaymentID string, amount valueobject.Money) (*payment.GatewayRefund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.intents[providerPaymentID]; !ok {
		return nil, fmt.Errorf("%w: unknown payment intent %s", payment.ErrGatewayDeclined, providerPaymentID)
	}
	return &payment.GatewayRefund{
		ProviderRefundID: "fake_re_" + uuid.NewString(),
		Status:           "succeeded",
	}, nil
}

var _ payment.Gateway = (*FakeGateway)(nil)
