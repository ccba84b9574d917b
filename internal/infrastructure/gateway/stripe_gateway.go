package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"go.uber.org/zap"
)

// StripeGateway implements payment.Gateway against the Stripe API
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway adapter. The API key is set
// on the global Stripe client, matching how the SDK's package-level API works.
func NewStripeGateway(apiKey string, logger *zap.Logger) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	stripe.Key = apiKey
	return &StripeGateway{logger: logger}, nil
}

// CreatePaymentIntent creates a payment intent for the given amount
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount valueobject.Money, metadata map[string]string) (*payment.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.AmountMinor()),
		Currency: stripe.String(strings.ToLower(string(amount.Currency()))),
		Metadata: metadata,
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("failed to create stripe payment intent",
			zap.Int64("amount_minor", amount.AmountMinor()),
			zap.Error(err))
		return nil, mapStripeError(err)
	}

	g.logger.Info("created stripe payment intent",
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount_minor", amount.AmountMinor()))

	return &payment.PaymentIntent{
		ProviderPaymentID: pi.ID,
		ClientSecret:      pi.ClientSecret,
		Status:            string(pi.Status),
	}, nil
}

// ConfirmPayment confirms a payment intent with the provider
func (g *StripeGateway) ConfirmPayment(ctx context.Context, providerPaymentID string) (*payment.PaymentIntent, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := paymentintent.Confirm(providerPaymentID, params)
	if err != nil {
		g.logger.Error("failed to confirm stripe payment intent",
			zap.String("payment_intent_id", providerPaymentID),
			zap.Error(err))
		return nil, mapStripeError(err)
	}

	return &payment.PaymentIntent{
		ProviderPaymentID: pi.ID,
		ClientSecret:      pi.ClientSecret,
		Status:            string(pi.Status),
	}, nil
}

// CancelPayment cancels a payment intent with the provider
func (g *StripeGateway) CancelPayment(ctx context.Context, providerPaymentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := paymentintent.Cancel(providerPaymentID, params); err != nil {
		g.logger.Error("failed to cancel stripe payment intent",
			zap.String("payment_intent_id", providerPaymentID),
			zap.Error(err))
		return mapStripeError(err)
	}
	return nil
}

// Refund asks the provider to refund part or all of a captured payment
func (g *StripeGateway) Refund(ctx context.Context, providerPaymentID string, amount valueobject.Money) (*payment.GatewayRefund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerPaymentID),
		Amount:        stripe.Int64(amount.AmountMinor()),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		g.logger.Error("failed to create stripe refund",
			zap.String("payment_intent_id", providerPaymentID),
			zap.Int64("amount_minor", amount.AmountMinor()),
			zap.Error(err))
		return nil, mapStripeError(err)
	}

	g.logger.Info("created stripe refund",
		zap.String("refund_id", r.ID),
		zap.String("payment_intent_id", providerPaymentID))

	return &payment.GatewayRefund{
		ProviderRefundID: r.ID,
		Status:           string(r.Status),
	}, nil
}

// mapStripeError translates Stripe errors into the gateway sentinels. Card
// and invalid-request failures are declines; everything else counts as the
// provider being unavailable, which callers may retry.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("%w: %s", payment.ErrGatewayDeclined, stripeErr.Msg)
		}
		return fmt.Errorf("%w: %s", payment.ErrGatewayUnavailable, stripeErr.Msg)
	}
	return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
}

var _ payment.Gateway = (*StripeGateway)(nil)
