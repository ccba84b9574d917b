package invoice

import (
	"testing"

	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(amount int64) valueobject.Money {
	return valueobject.MustNewMoney(amount, valueobject.USD)
}

func newDraftInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(uuid.New(), uuid.New(), uuid.New(), "INV-001", valueobject.USD)
	require.NoError(t, err)
	return inv
}

func issuedInvoice(t *testing.T, totalMinor int64) *Invoice {
	t.Helper()
	inv := newDraftInvoice(t)
	require.NoError(t, inv.AddLine("Service", decimal.NewFromInt(1), totalMinor))
	require.NoError(t, inv.Issue())
	return inv
}

func TestInvoice_Issue(t *testing.T) {
	t.Run("issues draft with lines", func(t *testing.T) {
		inv := newDraftInvoice(t)
		require.NoError(t, inv.AddLine("Consulting", decimal.NewFromInt(2), 2500))

		require.NoError(t, inv.Issue())

		assert.Equal(t, InvoiceStatusIssued, inv.Status)
		assert.Equal(t, int64(5000), inv.TotalMinor)
		assert.NotNil(t, inv.IssuedAt)
	})

	t.Run("rejects issuing empty invoice", func(t *testing.T) {
		inv := newDraftInvoice(t)
		assert.ErrorIs(t, inv.Issue(), ErrInvoiceHasNoLines)
	})

	t.Run("rejects line changes after issue", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		assert.ErrorIs(t, inv.AddLine("Late line", decimal.NewFromInt(1), 100), ErrInvoiceLocked)
		assert.ErrorIs(t, inv.RemoveLine(inv.Lines[0].ID), ErrInvoiceLocked)
	})

	t.Run("rejects double issue", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		assert.ErrorIs(t, inv.Issue(), ErrInvalidInvoiceState)
	})
}

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("partial then full payment", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)

		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(2000)))
		assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
		assert.Equal(t, int64(3000), inv.BalanceDueMinor())

		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(3000)))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.Equal(t, int64(0), inv.BalanceDueMinor())
		assert.NotNil(t, inv.PaidAt)
	})

	t.Run("rejects overpayment by default", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(2000)))

		err := inv.ApplyPayment(uuid.New(), usd(3001))
		assert.ErrorIs(t, err, ErrOverpayment)

		// state unchanged after the rejected attempt
		assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
		assert.Equal(t, int64(3000), inv.BalanceDueMinor())
	})

	t.Run("tracks overpayment as credit when allowed", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		inv.AllowOverpay = true

		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(5200)))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.Equal(t, int64(200), inv.OverpaidMinor)
		assert.Equal(t, int64(0), inv.BalanceDueMinor())
	})

	t.Run("rejects payment on draft", func(t *testing.T) {
		inv := newDraftInvoice(t)
		require.NoError(t, inv.AddLine("Service", decimal.NewFromInt(1), 1000))
		assert.ErrorIs(t, inv.ApplyPayment(uuid.New(), usd(1000)), ErrInvalidInvoiceState)
	})

	t.Run("rejects payment on paid invoice", func(t *testing.T) {
		inv := issuedInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(1000)))
		assert.ErrorIs(t, inv.ApplyPayment(uuid.New(), usd(1)), ErrInvalidInvoiceState)
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		inv := issuedInvoice(t, 1000)
		eur := valueobject.MustNewMoney(1000, valueobject.EUR)
		assert.ErrorIs(t, inv.ApplyPayment(uuid.New(), eur), ErrInvoiceCurrencyMismatch)
	})
}

func TestInvoice_BalanceLaw(t *testing.T) {
	inv := issuedInvoice(t, 5000)
	require.NoError(t, inv.ApplyPayment(uuid.New(), usd(1500)))
	_, err := inv.CreateCreditNote(usd(500), "shipping delay")
	require.NoError(t, err)

	// balance due == total - payments - credits at every point
	assert.Equal(t, inv.TotalMinor-inv.PaidMinor-inv.CreditedMinor, inv.BalanceDueMinor())
	assert.Equal(t, int64(3000), inv.BalanceDueMinor())
}

func TestInvoice_CreateCreditNote(t *testing.T) {
	t.Run("credit reduces balance and can settle invoice", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(4000)))

		note, err := inv.CreateCreditNote(usd(1000), "goodwill")
		require.NoError(t, err)
		assert.Equal(t, "INV-001-CN-1", note.Number)
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.Equal(t, int64(0), inv.BalanceDueMinor())
	})

	t.Run("rejects credit past the balance", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		_, err := inv.CreateCreditNote(usd(5001), "too much")
		assert.ErrorIs(t, err, ErrCreditExceedsBalance)
	})

	t.Run("rejects credit on draft", func(t *testing.T) {
		inv := newDraftInvoice(t)
		require.NoError(t, inv.AddLine("Service", decimal.NewFromInt(1), 1000))
		_, err := inv.CreateCreditNote(usd(100), "early")
		assert.ErrorIs(t, err, ErrInvalidInvoiceState)
	})

	t.Run("credit note numbers are sequential", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		n1, err := inv.CreateCreditNote(usd(100), "a")
		require.NoError(t, err)
		n2, err := inv.CreateCreditNote(usd(100), "b")
		require.NoError(t, err)
		assert.Equal(t, "INV-001-CN-1", n1.Number)
		assert.Equal(t, "INV-001-CN-2", n2.Number)
	})
}

func TestInvoice_Void(t *testing.T) {
	t.Run("voids unpaid invoice", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		require.NoError(t, inv.Void(VoidPolicyStrict))
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
		assert.NotNil(t, inv.VoidedAt)
	})

	t.Run("strict policy rejects void with payments", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(1000)))
		assert.ErrorIs(t, inv.Void(VoidPolicyStrict), ErrInvoiceHasPayments)
	})

	t.Run("strict policy rejects void with credit notes", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		_, err := inv.CreateCreditNote(usd(1000), "damaged goods")
		require.NoError(t, err)
		assert.ErrorIs(t, inv.Void(VoidPolicyStrict), ErrInvoiceHasPayments)
	})

	t.Run("rejects voiding a draft", func(t *testing.T) {
		inv := newDraftInvoice(t)
		require.NoError(t, inv.AddLine("Service", decimal.NewFromInt(1), 5000))
		assert.ErrorIs(t, inv.Void(VoidPolicyStrict), ErrInvalidInvoiceState)
	})

	t.Run("lenient policy allows void with payments", func(t *testing.T) {
		inv := issuedInvoice(t, 5000)
		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(1000)))
		require.NoError(t, inv.Void(VoidPolicyLenient))
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
	})

	t.Run("rejects voiding a paid invoice", func(t *testing.T) {
		inv := issuedInvoice(t, 1000)
		require.NoError(t, inv.ApplyPayment(uuid.New(), usd(1000)))
		assert.ErrorIs(t, inv.Void(VoidPolicyLenient), ErrInvalidInvoiceState)
	})

	t.Run("rejects double void", func(t *testing.T) {
		inv := issuedInvoice(t, 1000)
		require.NoError(t, inv.Void(VoidPolicyStrict))
		assert.ErrorIs(t, inv.Void(VoidPolicyStrict), ErrInvalidInvoiceState)
	})
}

func TestInvoice_Events(t *testing.T) {
	inv := issuedInvoice(t, 2000)
	require.NoError(t, inv.ApplyPayment(uuid.New(), usd(500)))
	require.NoError(t, inv.ApplyPayment(uuid.New(), usd(1500)))

	types := make([]string, 0)
	for _, e := range inv.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{
		"InvoiceCreated",
		"InvoiceIssued",
		"InvoicePartiallyPaid",
		"InvoicePaid",
	}, types)
}
