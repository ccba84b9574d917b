package invoice_test

import (
	"context"
	"testing"

	"github.com/fincore/backend/internal/application/apptest"
	invoiceapp "github.com/fincore/backend/internal/application/invoice"
	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func paidOrderFixture(t *testing.T, tenantID uuid.UUID, discountMinor int64) *order.FinancialOrder {
	t.Helper()
	o, err := order.NewFinancialOrder(tenantID, uuid.New(), "ORD-100", valueobject.USD)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
	require.NoError(t, o.SetTaxRates([]order.TaxRate{{Name: "Sales Tax", Rate: decimal.NewFromFloat(0.08)}}))
	if discountMinor > 0 {
		require.NoError(t, o.ApplyDiscount(discountMinor))
	}
	require.NoError(t, o.Lock())
	require.NoError(t, o.MarkPaid("pi_100"))
	o.ClearDomainEvents()
	return o
}

func TestOrderPaidHandler_Handle(t *testing.T) {
	t.Run("generates settled invoice from snapshot", func(t *testing.T) {
		tenantID := uuid.New()
		invoices := apptest.NewInvoiceRepo()
		orders := apptest.NewOrderRepo()
		outbox := &apptest.OutboxCollector{}
		handler := invoiceapp.NewOrderPaidHandler(invoices, orders, outbox, apptest.PassthroughTx{}, zap.NewNop())

		o := paidOrderFixture(t, tenantID, 0)
		require.NoError(t, orders.Save(context.Background(), o))

		event := order.NewOrderPaidEvent(o)
		require.NoError(t, handler.Handle(context.Background(), event))

		inv, err := invoices.FindByOrder(context.Background(), tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.InvoiceStatusPaid, inv.Status)
		assert.Equal(t, int64(1080), inv.TotalMinor)
		assert.Equal(t, int64(0), inv.BalanceDueMinor())
		// one line for the item, one for the tax
		assert.Len(t, inv.Lines, 2)
	})

	t.Run("locked discount becomes a credit note", func(t *testing.T) {
		tenantID := uuid.New()
		invoices := apptest.NewInvoiceRepo()
		orders := apptest.NewOrderRepo()
		outbox := &apptest.OutboxCollector{}
		handler := invoiceapp.NewOrderPaidHandler(invoices, orders, outbox, apptest.PassthroughTx{}, zap.NewNop())

		o := paidOrderFixture(t, tenantID, 200)
		require.NoError(t, orders.Save(context.Background(), o))

		require.NoError(t, handler.Handle(context.Background(), order.NewOrderPaidEvent(o)))

		inv, err := invoices.FindByOrder(context.Background(), tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.InvoiceStatusPaid, inv.Status)
		require.Len(t, inv.CreditNotes, 1)
		assert.Equal(t, int64(200), inv.CreditNotes[0].AmountMinor)
		// paid exactly the captured order total: 800 + 64 tax
		assert.Equal(t, int64(864), inv.PaidMinor)
	})

	t.Run("duplicate delivery is acknowledged without effect", func(t *testing.T) {
		tenantID := uuid.New()
		invoices := apptest.NewInvoiceRepo()
		orders := apptest.NewOrderRepo()
		outbox := &apptest.OutboxCollector{}
		handler := invoiceapp.NewOrderPaidHandler(invoices, orders, outbox, apptest.PassthroughTx{}, zap.NewNop())

		o := paidOrderFixture(t, tenantID, 0)
		require.NoError(t, orders.Save(context.Background(), o))

		event := order.NewOrderPaidEvent(o)
		require.NoError(t, handler.Handle(context.Background(), event))
		require.NoError(t, handler.Handle(context.Background(), event))

		all, err := invoices.FindByCustomer(context.Background(), tenantID, o.CustomerID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		handler := invoiceapp.NewOrderPaidHandler(
			apptest.NewInvoiceRepo(), apptest.NewOrderRepo(),
			&apptest.OutboxCollector{}, apptest.PassthroughTx{}, zap.NewNop())

		o := paidOrderFixture(t, uuid.New(), 0)
		assert.NoError(t, handler.Handle(context.Background(), order.NewOrderLockedEvent(o)))
	})
}
