package ledger

import (
	"testing"
	"time"

	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(amount int64) valueobject.Money {
	return valueobject.MustNewMoney(amount, valueobject.USD)
}

func balancedInputs(cash, revenue, tax uuid.UUID) []EntryInput {
	return []EntryInput{
		{AccountID: cash, Direction: EntryDirectionDebit, Amount: usd(1080), Memo: "order total"},
		{AccountID: revenue, Direction: EntryDirectionCredit, Amount: usd(1000), Memo: "net revenue"},
		{AccountID: tax, Direction: EntryDirectionCredit, Amount: usd(80), Memo: "sales tax"},
	}
}

func TestNewTransaction(t *testing.T) {
	tenantID := uuid.New()
	ledgerID := uuid.New()
	cash, revenue, tax := uuid.New(), uuid.New(), uuid.New()

	t.Run("creates balanced transaction", func(t *testing.T) {
		txn, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "order paid", time.Now(), balancedInputs(cash, revenue, tax))
		require.NoError(t, err)
		require.Len(t, txn.Entries, 3)

		assert.Equal(t, int64(1080), txn.DebitTotal())
		assert.Equal(t, int64(1080), txn.CreditTotal())
		assert.True(t, txn.IsBalanced())
		assert.Equal(t, valueobject.USD, txn.Currency)
		for _, e := range txn.Entries {
			assert.Equal(t, txn.ID, e.TransactionID)
		}
	})

	t.Run("raises posted event", func(t *testing.T) {
		txn, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "order paid", time.Now(), balancedInputs(cash, revenue, tax))
		require.NoError(t, err)

		events := txn.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "LedgerTransactionPosted", events[0].EventType())
	})

	t.Run("rejects unbalanced entries", func(t *testing.T) {
		inputs := []EntryInput{
			{AccountID: cash, Direction: EntryDirectionDebit, Amount: usd(1080)},
			{AccountID: revenue, Direction: EntryDirectionCredit, Amount: usd(1000)},
		}
		_, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "bad", time.Now(), inputs)
		assert.ErrorIs(t, err, ErrUnbalancedTransaction)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		inputs := []EntryInput{
			{AccountID: cash, Direction: EntryDirectionDebit, Amount: usd(-10)},
			{AccountID: revenue, Direction: EntryDirectionCredit, Amount: usd(-10)},
		}
		_, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "bad", time.Now(), inputs)
		assert.ErrorIs(t, err, ErrNegativeEntryAmount)
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		inputs := []EntryInput{
			{AccountID: cash, Direction: EntryDirectionDebit, Amount: usd(100)},
			{AccountID: revenue, Direction: EntryDirectionCredit, Amount: valueobject.MustNewMoney(100, valueobject.EUR)},
		}
		_, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "bad", time.Now(), inputs)
		assert.ErrorIs(t, err, ErrMixedEntryCurrency)
	})

	t.Run("rejects single-sided transactions", func(t *testing.T) {
		inputs := []EntryInput{
			{AccountID: cash, Direction: EntryDirectionDebit, Amount: usd(50)},
			{AccountID: revenue, Direction: EntryDirectionDebit, Amount: usd(50)},
		}
		_, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "bad", time.Now(), inputs)
		assert.ErrorIs(t, err, ErrEmptyTransaction)
	})

	t.Run("rejects fewer than two entries", func(t *testing.T) {
		inputs := []EntryInput{
			{AccountID: cash, Direction: EntryDirectionDebit, Amount: usd(50)},
		}
		_, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "bad", time.Now(), inputs)
		assert.ErrorIs(t, err, ErrEmptyTransaction)
	})

	t.Run("rejects nil account", func(t *testing.T) {
		inputs := []EntryInput{
			{AccountID: uuid.Nil, Direction: EntryDirectionDebit, Amount: usd(50)},
			{AccountID: revenue, Direction: EntryDirectionCredit, Amount: usd(50)},
		}
		_, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "bad", time.Now(), inputs)
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})
}

func TestTransaction_Reverse(t *testing.T) {
	tenantID := uuid.New()
	ledgerID := uuid.New()
	cash, revenue, tax := uuid.New(), uuid.New(), uuid.New()

	txn, err := NewTransaction(tenantID, ledgerID, "FINANCIAL_ORDER", uuid.New(), "order paid", time.Now(), balancedInputs(cash, revenue, tax))
	require.NoError(t, err)

	reversal, err := txn.Reverse("order refunded", time.Now())
	require.NoError(t, err)
	require.Len(t, reversal.Entries, 3)

	assert.True(t, reversal.IsBalanced())
	assert.NotEqual(t, txn.ID, reversal.ID)

	// Every entry direction must be flipped
	for i, e := range reversal.Entries {
		assert.NotEqual(t, txn.Entries[i].Direction, e.Direction)
		assert.Equal(t, txn.Entries[i].AmountMinor, e.AmountMinor)
		assert.Equal(t, txn.Entries[i].AccountID, e.AccountID)
	}
}

func TestAccountType_NormalBalance(t *testing.T) {
	tests := []struct {
		accountType AccountType
		direction   EntryDirection
	}{
		{AccountTypeCash, EntryDirectionDebit},
		{AccountTypeAccountsReceivable, EntryDirectionDebit},
		{AccountTypeRevenue, EntryDirectionCredit},
		{AccountTypeTaxPayable, EntryDirectionCredit},
		{AccountTypeRefundLiability, EntryDirectionCredit},
		{AccountTypePlatformCommission, EntryDirectionCredit},
	}

	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			assert.Equal(t, tt.direction, tt.accountType.NormalBalance())
		})
	}
}

func TestAccount_BalanceFromEntries(t *testing.T) {
	tenantID := uuid.New()
	ledgerID := uuid.New()

	cash, err := NewAccount(tenantID, ledgerID, AccountCodeCash, "Cash", AccountTypeCash)
	require.NoError(t, err)
	revenue, err := NewAccount(tenantID, ledgerID, AccountCodeRevenue, "Revenue", AccountTypeRevenue)
	require.NoError(t, err)

	now := time.Now()
	entries := []Entry{
		{ID: uuid.New(), AccountID: cash.ID, Direction: EntryDirectionDebit, AmountMinor: 1080, Currency: valueobject.USD, TransactionAt: now},
		{ID: uuid.New(), AccountID: revenue.ID, Direction: EntryDirectionCredit, AmountMinor: 1000, Currency: valueobject.USD, TransactionAt: now},
		{ID: uuid.New(), AccountID: cash.ID, Direction: EntryDirectionCredit, AmountMinor: 80, Currency: valueobject.USD, TransactionAt: now.Add(time.Hour)},
	}

	t.Run("debit-normal account", func(t *testing.T) {
		balance := cash.BalanceFromEntries(entries, valueobject.USD, nil)
		assert.Equal(t, int64(1000), balance.AmountMinor())
	})

	t.Run("credit-normal account", func(t *testing.T) {
		balance := revenue.BalanceFromEntries(entries, valueobject.USD, nil)
		assert.Equal(t, int64(1000), balance.AmountMinor())
	})

	t.Run("as-of cutoff excludes later entries", func(t *testing.T) {
		asOf := now.Add(time.Minute)
		balance := cash.BalanceFromEntries(entries, valueobject.USD, &asOf)
		assert.Equal(t, int64(1080), balance.AmountMinor())
	})
}

func TestNewAccount_Validation(t *testing.T) {
	tenantID := uuid.New()
	ledgerID := uuid.New()

	_, err := NewAccount(tenantID, uuid.Nil, AccountCodeCash, "Cash", AccountTypeCash)
	assert.Error(t, err)

	_, err = NewAccount(tenantID, ledgerID, "", "Cash", AccountTypeCash)
	assert.Error(t, err)

	_, err = NewAccount(tenantID, ledgerID, AccountCodeCash, "Cash", AccountType("EQUITY"))
	assert.Error(t, err)
}
