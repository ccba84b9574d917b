package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/stripe/stripe-go/v81"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStripeGateway(t *testing.T) {
	t.Run("requires an api key", func(t *testing.T) {
		_, err := NewStripeGateway("", zap.NewNop())
		require.Error(t, err)
	})

	t.Run("creates gateway with key", func(t *testing.T) {
		gw, err := NewStripeGateway("sk_test_123", zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, gw)
	})
}

func TestMapStripeError(t *testing.T) {
	t.Run("card errors map to declined", func(t *testing.T) {
		err := mapStripeError(&stripe.Error{
			Type: stripe.ErrorTypeCard,
			Code: stripe.ErrorCodeCardDeclined,
			Msg:  "Your card was declined.",
		})
		assert.ErrorIs(t, err, payment.ErrGatewayDeclined)
	})

	t.Run("invalid request maps to declined", func(t *testing.T) {
		err := mapStripeError(&stripe.Error{
			Type: stripe.ErrorTypeInvalidRequest,
			Code: stripe.ErrorCodeResourceMissing,
			Msg:  "No such payment_intent.",
		})
		assert.ErrorIs(t, err, payment.ErrGatewayDeclined)
	})

	t.Run("api errors map to unavailable", func(t *testing.T) {
		err := mapStripeError(&stripe.Error{
			Type: stripe.ErrorTypeAPI,
			Msg:  "Something went wrong on Stripe's end.",
		})
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("transport errors map to unavailable", func(t *testing.T) {
		err := mapStripeError(errors.New("connection refused"))
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})
}

func TestFakeGateway(t *testing.T) {
	gw := NewFakeGateway()
	ctx := context.Background()
	amount := valueobject.MustNewMoney(6000, valueobject.USD)

	intent, err := gw.CreatePaymentIntent(ctx, amount, map[string]string{"order_id": "ORD-001"})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ProviderPaymentID)
	assert.Equal(t, "requires_confirmation", intent.Status)

	t.Run("confirm succeeds for known intents", func(t *testing.T) {
		confirmed, err := gw.ConfirmPayment(ctx, intent.ProviderPaymentID)
		require.NoError(t, err)
		assert.Equal(t, "succeeded", confirmed.Status)
	})

	t.Run("refund succeeds for known intents", func(t *testing.T) {
		r, err := gw.Refund(ctx, intent.ProviderPaymentID, amount)
		require.NoError(t, err)
		assert.Equal(t, "succeeded", r.Status)
		assert.NotEmpty(t, r.ProviderRefundID)
	})

	t.Run("unknown intents are declined", func(t *testing.T) {
		_, err := gw.ConfirmPayment(ctx, "fake_pi_missing")
		assert.ErrorIs(t, err, payment.ErrGatewayDeclined)

		_, err = gw.Refund(ctx, "fake_pi_missing", amount)
		assert.ErrorIs(t, err, payment.ErrGatewayDeclined)
	})

	t.Run("cancel marks the intent canceled", func(t *testing.T) {
		fresh, err := gw.CreatePaymentIntent(ctx, amount, nil)
		require.NoError(t, err)
		require.NoError(t, gw.CancelPayment(ctx, fresh.ProviderPaymentID))
	})
}
