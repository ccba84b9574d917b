package order

import (
	"testing"

	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftOrder(t *testing.T) *FinancialOrder {
	t.Helper()
	o, err := NewFinancialOrder(uuid.New(), uuid.New(), "ORD-001", valueobject.USD)
	require.NoError(t, err)
	return o
}

func usd(amount int64) valueobject.Money {
	return valueobject.MustNewMoney(amount, valueobject.USD)
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"draft to pending", OrderStatusDraft, OrderStatusPending, true},
		{"draft to paid", OrderStatusDraft, OrderStatusPaid, false},
		{"pending to paid", OrderStatusPending, OrderStatusPaid, true},
		{"pending to failed", OrderStatusPending, OrderStatusFailed, true},
		{"pending to refunded", OrderStatusPending, OrderStatusRefunded, false},
		{"paid to refunded", OrderStatusPaid, OrderStatusRefunded, true},
		{"paid to pending", OrderStatusPaid, OrderStatusPending, false},
		{"refunded is terminal", OrderStatusRefunded, OrderStatusPaid, false},
		{"failed is terminal", OrderStatusFailed, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestFinancialOrder_Totals(t *testing.T) {
	o := newDraftOrder(t)

	require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(2), 300))
	require.NoError(t, o.AddItem(uuid.New(), "Gadget", decimal.NewFromInt(1), 400))
	assert.Equal(t, int64(1000), o.SubtotalMinor)

	require.NoError(t, o.SetTaxRates([]TaxRate{{Name: "Sales Tax", Rate: decimal.NewFromFloat(0.08)}}))
	assert.Equal(t, int64(80), o.TaxTotalMinor)
	assert.Equal(t, int64(1080), o.TotalMinor)
}

func TestFinancialOrder_FractionalQuantity(t *testing.T) {
	o := newDraftOrder(t)

	// 2.5 * 199 = 497.5, rounds half up to 498
	require.NoError(t, o.AddItem(uuid.New(), "Bulk item", decimal.NewFromFloat(2.5), 199))
	assert.Equal(t, int64(498), o.SubtotalMinor)
}

func TestFinancialOrder_Discount(t *testing.T) {
	o := newDraftOrder(t)
	require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
	require.NoError(t, o.SetTaxRates([]TaxRate{{Name: "Sales Tax", Rate: decimal.NewFromFloat(0.08)}}))

	require.NoError(t, o.ApplyDiscount(200))

	// tax applies to the discounted subtotal: 8% of 800
	assert.Equal(t, int64(64), o.TaxTotalMinor)
	assert.Equal(t, int64(864), o.TotalMinor)

	assert.Error(t, o.ApplyDiscount(2000))
}

func TestFinancialOrder_Lock(t *testing.T) {
	t.Run("locks pending order with snapshot", func(t *testing.T) {
		o := newDraftOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
		require.NoError(t, o.SetTaxRates([]TaxRate{{Name: "Sales Tax", Rate: decimal.NewFromFloat(0.08)}}))

		require.NoError(t, o.Lock())

		assert.Equal(t, OrderStatusPending, o.Status)
		require.NotNil(t, o.Snapshot)
		assert.Equal(t, int64(1000), o.Snapshot.SubtotalMinor)
		assert.Equal(t, int64(80), o.Snapshot.TaxTotalMinor)
		assert.Equal(t, int64(1080), o.Snapshot.TotalMinor)
		require.Len(t, o.Snapshot.Items, 1)
		assert.NotNil(t, o.LockedAt)
	})

	t.Run("rejects lock on empty order", func(t *testing.T) {
		o := newDraftOrder(t)
		assert.ErrorIs(t, o.Lock(), ErrOrderHasNoItems)
	})

	t.Run("rejects mutation after lock", func(t *testing.T) {
		o := newDraftOrder(t)
		itemProduct := uuid.New()
		require.NoError(t, o.AddItem(itemProduct, "Widget", decimal.NewFromInt(1), 1000))
		require.NoError(t, o.Lock())

		assert.ErrorIs(t, o.AddItem(uuid.New(), "Late item", decimal.NewFromInt(1), 100), ErrFinancialOrderLocked)
		assert.ErrorIs(t, o.RemoveItem(o.Items[0].ID), ErrFinancialOrderLocked)
		assert.ErrorIs(t, o.UpdateItemPrice(o.Items[0].ID, 1), ErrFinancialOrderLocked)
		assert.ErrorIs(t, o.ApplyDiscount(10), ErrFinancialOrderLocked)
		assert.ErrorIs(t, o.SetTaxRates(nil), ErrFinancialOrderLocked)
	})

	t.Run("rejects double lock", func(t *testing.T) {
		o := newDraftOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
		require.NoError(t, o.Lock())
		assert.ErrorIs(t, o.Lock(), ErrInvalidOrderState)
	})
}

func TestFinancialOrder_MarkPaid(t *testing.T) {
	t.Run("marks pending order paid", func(t *testing.T) {
		o := newDraftOrder(t)
		require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
		require.NoError(t, o.Lock())

		require.NoError(t, o.MarkPaid("pi_123"))

		assert.Equal(t, OrderStatusPaid, o.Status)
		assert.Equal(t, "pi_123", o.ProviderRef)
		assert.NotNil(t, o.PaidAt)
	})

	t.Run("rejects paying a draft", func(t *testing.T) {
		o := newDraftOrder(t)
		assert.ErrorIs(t, o.MarkPaid("pi_123"), ErrInvalidOrderState)
	})
}

func TestFinancialOrder_Fail(t *testing.T) {
	o := newDraftOrder(t)
	require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
	require.NoError(t, o.Lock())

	require.NoError(t, o.Fail("card declined"))
	assert.Equal(t, OrderStatusFailed, o.Status)
	assert.Equal(t, "card declined", o.FailureReason)

	assert.ErrorIs(t, o.MarkPaid("pi_123"), ErrInvalidOrderState)
}

func paidOrder(t *testing.T) *FinancialOrder {
	t.Helper()
	o := newDraftOrder(t)
	require.NoError(t, o.AddItem(uuid.New(), "Widget", decimal.NewFromInt(1), 1000))
	require.NoError(t, o.SetTaxRates([]TaxRate{{Name: "Sales Tax", Rate: decimal.NewFromFloat(0.08)}}))
	require.NoError(t, o.Lock())
	require.NoError(t, o.MarkPaid("pi_123"))
	return o
}

func TestFinancialOrder_ApplyRefund(t *testing.T) {
	t.Run("partial refunds accumulate", func(t *testing.T) {
		o := paidOrder(t)

		require.NoError(t, o.ApplyRefund(usd(300), "damaged item"))
		assert.Equal(t, OrderStatusPaid, o.Status)
		assert.Equal(t, int64(300), o.RefundedMinor)
		assert.Equal(t, int64(780), o.RemainingRefundable().AmountMinor())

		require.NoError(t, o.ApplyRefund(usd(780), "remainder"))
		assert.Equal(t, OrderStatusRefunded, o.Status)
		assert.Equal(t, int64(1080), o.RefundedMinor)
	})

	t.Run("rejects refund past the total", func(t *testing.T) {
		o := paidOrder(t)
		require.NoError(t, o.ApplyRefund(usd(1000), "goodwill"))
		assert.ErrorIs(t, o.ApplyRefund(usd(81), "too much"), ErrRefundExceedsTotal)

		// the running sum is unchanged after the rejected attempt
		assert.Equal(t, int64(1000), o.RefundedMinor)
		require.NoError(t, o.ApplyRefund(usd(80), "exact remainder"))
		assert.Equal(t, OrderStatusRefunded, o.Status)
	})

	t.Run("rejects non-positive refund", func(t *testing.T) {
		o := paidOrder(t)
		assert.ErrorIs(t, o.ApplyRefund(usd(0), "zero"), ErrRefundNotPositive)
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		o := paidOrder(t)
		eur := valueobject.MustNewMoney(100, valueobject.EUR)
		assert.ErrorIs(t, o.ApplyRefund(eur, "wrong currency"), ErrOrderCurrencyMismatch)
	})

	t.Run("rejects refund on unpaid order", func(t *testing.T) {
		o := newDraftOrder(t)
		assert.ErrorIs(t, o.ApplyRefund(usd(100), "nope"), ErrInvalidOrderState)
	})

	t.Run("rejects refund on fully refunded order", func(t *testing.T) {
		o := paidOrder(t)
		require.NoError(t, o.ApplyRefund(usd(1080), "full"))
		assert.ErrorIs(t, o.ApplyRefund(usd(1), "again"), ErrInvalidOrderState)
	})
}

func TestFinancialOrder_Events(t *testing.T) {
	o := paidOrder(t)
	require.NoError(t, o.ApplyRefund(usd(1080), "full"))

	types := make([]string, 0)
	for _, e := range o.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{
		"FinancialOrderCreated",
		"FinancialOrderLocked",
		"FinancialOrderPaid",
		"FinancialOrderRefunded",
	}, types)
}

func TestRefund_Lifecycle(t *testing.T) {
	r, err := NewRefund(uuid.New(), uuid.New(), usd(500), "damaged")
	require.NoError(t, err)
	assert.Equal(t, RefundStatusPending, r.Status)

	require.NoError(t, r.Complete("re_123"))
	assert.Equal(t, RefundStatusCompleted, r.Status)
	assert.NotNil(t, r.CompletedAt)

	// completed refunds are immutable
	assert.Error(t, r.Complete("re_456"))
	assert.Error(t, r.MarkFailed())
}
