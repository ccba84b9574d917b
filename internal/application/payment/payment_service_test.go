package payment_test

import (
	"context"
	"testing"

	"github.com/fincore/backend/internal/application/apptest"
	ledgerapp "github.com/fincore/backend/internal/application/ledger"
	orderapp "github.com/fincore/backend/internal/application/order"
	paymentapp "github.com/fincore/backend/internal/application/payment"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc       *paymentapp.Service
	orderSvc  *orderapp.Service
	ledgerSvc *ledgerapp.Service
	gateway   *apptest.FakeGateway
	payments  *apptest.PaymentRepo
	outbox    *apptest.OutboxCollector
	tenantID  uuid.UUID
	ledgerID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledgers := apptest.NewLedgerRepo()
	accounts := apptest.NewAccountRepo()
	txns := apptest.NewTransactionRepo()
	orders := apptest.NewOrderRepo()
	refunds := apptest.NewRefundRepo()
	logger := zap.NewNop()

	f := &fixture{
		gateway:  &apptest.FakeGateway{},
		payments: apptest.NewPaymentRepo(),
		outbox:   &apptest.OutboxCollector{},
		tenantID: uuid.New(),
	}
	f.ledgerSvc = ledgerapp.NewService(ledgers, accounts, txns, f.outbox, apptest.PassthroughTx{}, logger)
	f.orderSvc = orderapp.NewService(orders, refunds, ledgers, f.ledgerSvc, f.outbox, apptest.PassthroughTx{}, logger)
	f.svc = paymentapp.NewService(
		f.payments, f.orderSvc, f.gateway,
		apptest.NewMemoryIdempotency(), shared.DefaultIdempotencyConfig(),
		f.outbox, apptest.PassthroughTx{}, logger)

	l, err := f.ledgerSvc.ProvisionTenant(context.Background(), f.tenantID, "Main Ledger", valueobject.USD)
	require.NoError(t, err)
	f.ledgerID = l.ID
	return f
}

func (f *fixture) lockedOrder(t *testing.T) *order.FinancialOrder {
	t.Helper()
	ctx := context.Background()
	o, err := f.orderSvc.CreateDraft(ctx, orderapp.CreateDraftCommand{
		TenantID:    f.tenantID,
		CustomerID:  uuid.New(),
		OrderNumber: "ORD-001",
		Currency:    valueobject.USD,
		TaxRates:    []order.TaxRate{{Name: "Sales Tax", Rate: decimal.NewFromFloat(0.08)}},
	})
	require.NoError(t, err)
	_, err = f.orderSvc.AddItem(ctx, f.tenantID, o.ID, uuid.New(), "Widget", decimal.NewFromInt(1), 1000)
	require.NoError(t, err)
	locked, err := f.orderSvc.Lock(ctx, f.tenantID, o.ID)
	require.NoError(t, err)
	return locked
}

func (f *fixture) succeededPayment(t *testing.T) (*payment.Payment, *order.FinancialOrder) {
	t.Helper()
	o := f.lockedOrder(t)
	created, err := f.svc.CreatePayment(context.Background(), f.tenantID, o.ID)
	require.NoError(t, err)
	p, err := f.svc.Confirm(context.Background(), f.tenantID, created.Payment.ProviderPaymentID)
	require.NoError(t, err)
	return p, o
}

func (f *fixture) balance(t *testing.T, code string) int64 {
	t.Helper()
	m, err := f.ledgerSvc.BalanceOf(context.Background(), f.tenantID, f.ledgerID, code, nil)
	require.NoError(t, err)
	return m.AmountMinor()
}

func TestService_CreatePayment(t *testing.T) {
	t.Run("creates authorized payment for locked order", func(t *testing.T) {
		f := newFixture(t)
		o := f.lockedOrder(t)

		result, err := f.svc.CreatePayment(context.Background(), f.tenantID, o.ID)
		require.NoError(t, err)

		assert.Equal(t, payment.PaymentStatusAuthorized, result.Payment.Status)
		assert.Equal(t, int64(1080), result.Payment.AmountMinor)
		assert.NotEmpty(t, result.ClientSecret)
		require.Len(t, f.gateway.Calls, 1)
		assert.Equal(t, int64(1080), f.gateway.Calls[0].AmountMinor)
	})

	t.Run("rejects payment for draft order", func(t *testing.T) {
		f := newFixture(t)
		o, err := f.orderSvc.CreateDraft(context.Background(), orderapp.CreateDraftCommand{
			TenantID:    f.tenantID,
			CustomerID:  uuid.New(),
			OrderNumber: "ORD-002",
			Currency:    valueobject.USD,
		})
		require.NoError(t, err)

		_, err = f.svc.CreatePayment(context.Background(), f.tenantID, o.ID)
		assert.ErrorIs(t, err, order.ErrInvalidOrderState)
	})
}

func TestService_Confirm(t *testing.T) {
	t.Run("confirm captures payment and pays the order", func(t *testing.T) {
		f := newFixture(t)
		p, o := f.succeededPayment(t)

		assert.Equal(t, payment.PaymentStatusSucceeded, p.Status)

		stored, err := f.orderSvc.FindByID(context.Background(), f.tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusPaid, stored.Status)

		assert.Equal(t, int64(1080), f.balance(t, ledger.AccountCodeCash))
	})

	t.Run("replayed confirm is a no-op", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.succeededPayment(t)

		again, err := f.svc.Confirm(context.Background(), f.tenantID, p.ProviderPaymentID)
		require.NoError(t, err)
		assert.Equal(t, payment.PaymentStatusSucceeded, again.Status)

		// no double posting to the ledger
		assert.Equal(t, int64(1080), f.balance(t, ledger.AccountCodeCash))

		succeeded := 0
		for _, eventType := range f.outbox.EventTypes() {
			if eventType == "PaymentSucceeded" {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestService_Fail(t *testing.T) {
	f := newFixture(t)
	o := f.lockedOrder(t)
	created, err := f.svc.CreatePayment(context.Background(), f.tenantID, o.ID)
	require.NoError(t, err)

	p, err := f.svc.Fail(context.Background(), f.tenantID, created.Payment.ID, "insufficient funds")
	require.NoError(t, err)
	assert.Equal(t, payment.PaymentStatusFailed, p.Status)

	stored, err := f.orderSvc.FindByID(context.Background(), f.tenantID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusFailed, stored.Status)
	assert.Equal(t, int64(0), f.balance(t, ledger.AccountCodeCash))
}

func TestService_Refund(t *testing.T) {
	t.Run("partial refund keeps payment succeeded", func(t *testing.T) {
		f := newFixture(t)
		p, o := f.succeededPayment(t)

		refunded, err := f.svc.Refund(context.Background(), f.tenantID, p.ID, 540, "half back")
		require.NoError(t, err)
		assert.Equal(t, payment.PaymentStatusSucceeded, refunded.Status)

		stored, err := f.orderSvc.FindByID(context.Background(), f.tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(540), stored.RefundedMinor)
		assert.Equal(t, int64(540), f.balance(t, ledger.AccountCodeCash))
	})

	t.Run("full refund flips payment to refunded", func(t *testing.T) {
		f := newFixture(t)
		p, _ := f.succeededPayment(t)

		refunded, err := f.svc.Refund(context.Background(), f.tenantID, p.ID, 1080, "full")
		require.NoError(t, err)
		assert.Equal(t, payment.PaymentStatusRefunded, refunded.Status)
		assert.Equal(t, int64(0), f.balance(t, ledger.AccountCodeCash))
	})

	t.Run("gateway failure leaves all state untouched", func(t *testing.T) {
		f := newFixture(t)
		p, o := f.succeededPayment(t)
		f.gateway.FailRefund = true

		_, err := f.svc.Refund(context.Background(), f.tenantID, p.ID, 540, "declined")
		assert.ErrorIs(t, err, payment.ErrGatewayDeclined)

		stored, err := f.orderSvc.FindByID(context.Background(), f.tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stored.RefundedMinor)
		assert.Equal(t, payment.PaymentStatusSucceeded, p.Status)
		assert.Equal(t, int64(1080), f.balance(t, ledger.AccountCodeCash))
	})

	t.Run("rejects refund of unconfirmed payment", func(t *testing.T) {
		f := newFixture(t)
		o := f.lockedOrder(t)
		created, err := f.svc.CreatePayment(context.Background(), f.tenantID, o.ID)
		require.NoError(t, err)

		_, err = f.svc.Refund(context.Background(), f.tenantID, created.Payment.ID, 100, "early")
		assert.ErrorIs(t, err, payment.ErrPaymentNotRefundable)
	})
}
