package ledger

import (
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AccountType classifies an account within the chart of accounts.
// The type determines which entry direction represents an increase.
type AccountType string

const (
	AccountTypeRevenue            AccountType = "REVENUE"
	AccountTypeTaxPayable         AccountType = "TAX_PAYABLE"
	AccountTypePlatformCommission AccountType = "PLATFORM_COMMISSION"
	AccountTypeAccountsReceivable AccountType = "ACCOUNTS_RECEIVABLE"
	AccountTypeCash               AccountType = "CASH"
	AccountTypeRefundLiability    AccountType = "REFUND_LIABILITY"
)

// IsValid checks if the type is a valid AccountType
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeRevenue, AccountTypeTaxPayable, AccountTypePlatformCommission,
		AccountTypeAccountsReceivable, AccountTypeCash, AccountTypeRefundLiability:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// NormalBalance returns the entry direction that increases an account of
// this type. Cash and receivables are debit-normal; revenue, tax payable,
// commission and refund liability are credit-normal.
func (t AccountType) NormalBalance() EntryDirection {
	switch t {
	case AccountTypeCash, AccountTypeAccountsReceivable:
		return EntryDirectionDebit
	default:
		return EntryDirectionCredit
	}
}

// Well-known chart-of-accounts codes. Accounts are created by setup
// migrations, never by end-user flows; engines resolve them by code.
const (
	AccountCodeCash               = "1000"
	AccountCodeAccountsReceivable = "1100"
	AccountCodeTaxPayable         = "2100"
	AccountCodeRefundLiability    = "2200"
	AccountCodeRevenue            = "4000"
	AccountCodePlatformCommission = "4100"
)

// Ledger is the per-tenant double-entry bookkeeping store. It owns accounts
// and transactions exclusively; no other component writes entries directly.
type Ledger struct {
	shared.TenantAggregateRoot
	Name     string
	Currency valueobject.Currency
}

// NewLedger creates a new ledger for a tenant
func NewLedger(tenantID uuid.UUID, name string, currency valueobject.Currency) (*Ledger, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_LEDGER_NAME", "Ledger name cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Ledger currency is not a valid currency code")
	}
	return &Ledger{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Currency:            currency,
	}, nil
}

// Account represents one account in a tenant ledger
type Account struct {
	shared.TenantAggregateRoot
	LedgerID uuid.UUID
	Code     string
	Name     string
	Type     AccountType
	Active   bool
}

// NewAccount creates a new ledger account
func NewAccount(tenantID, ledgerID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	if ledgerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEDGER", "Ledger ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type is not valid")
	}

	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LedgerID:            ledgerID,
		Code:                code,
		Name:                name,
		Type:                accountType,
		Active:              true,
	}, nil
}

// Deactivate marks the account as inactive. Inactive accounts keep their
// history but reject new entries.
func (a *Account) Deactivate() {
	a.Active = false
	a.UpdatedAt = time.Now()
}

// BalanceFromEntries folds committed entries into the account balance as of
// the given time. Debits increase debit-normal accounts and decrease
// credit-normal ones, and vice versa. The balance is always derived, never
// stored, so it cannot drift from the entries.
func (a *Account) BalanceFromEntries(entries []Entry, currency valueobject.Currency, asOf *time.Time) valueobject.Money {
	increase := a.Type.NormalBalance()
	balance := valueobject.Zero(currency)
	for _, e := range entries {
		if e.AccountID != a.ID {
			continue
		}
		if asOf != nil && e.TransactionAt.After(*asOf) {
			continue
		}
		amount := valueobject.MustNewMoney(e.AmountMinor, e.Currency)
		if e.Direction == increase {
			balance = balance.MustAdd(amount)
		} else {
			balance = balance.MustSubtract(amount)
		}
	}
	return balance
}
