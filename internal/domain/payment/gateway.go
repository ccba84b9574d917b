package payment

import (
	"context"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
)

// Gateway failures, mapped from provider responses by adapters
var (
	ErrGatewayDeclined    = shared.NewDomainError("GATEWAY_DECLINED", "Payment provider declined the operation")
	ErrGatewayUnavailable = shared.NewDomainError("GATEWAY_UNAVAILABLE", "Payment provider is unreachable")
)

// PaymentIntent is the provider-side handle for a payment attempt
type PaymentIntent struct {
	ProviderPaymentID string
	ClientSecret      string
	Status            string
}

// GatewayRefund is the provider-side record of a refund
type GatewayRefund struct {
	ProviderRefundID string
	Status           string
}

// Gateway abstracts the external payment provider. Adapters translate
// provider errors into the gateway sentinels above.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount valueobject.Money, metadata map[string]string) (*PaymentIntent, error)
	ConfirmPayment(ctx context.Context, providerPaymentID string) (*PaymentIntent, error)
	CancelPayment(ctx context.Context, providerPaymentID string) error
	Refund(ctx context.Context, providerPaymentID string, amount valueobject.Money) (*GatewayRefund, error)
}
