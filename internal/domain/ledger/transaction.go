package ledger

import (
	"fmt"
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Typed failures for ledger posting. Posting either commits the transaction
// header and all entries as one unit, or nothing at all.
var (
	ErrUnbalancedTransaction = shared.NewDomainError("UNBALANCED_TRANSACTION", "Transaction debits do not equal credits")
	ErrUnknownAccount        = shared.NewDomainError("UNKNOWN_ACCOUNT", "Entry references an account that does not exist in this ledger")
	ErrInactiveAccount       = shared.NewDomainError("INACTIVE_ACCOUNT", "Entry references a deactivated account")
	ErrEmptyTransaction      = shared.NewDomainError("EMPTY_TRANSACTION", "Transaction must have at least one debit and one credit entry")
	ErrMixedEntryCurrency    = shared.NewDomainError("MIXED_ENTRY_CURRENCY", "All entries in a transaction must share one currency")
	ErrNegativeEntryAmount   = shared.NewDomainError("NEGATIVE_ENTRY_AMOUNT", "Entry amounts cannot be negative")
)

// EntryDirection is the side of a double-entry line
type EntryDirection string

const (
	EntryDirectionDebit  EntryDirection = "DEBIT"
	EntryDirectionCredit EntryDirection = "CREDIT"
)

// IsValid checks if the direction is valid
func (d EntryDirection) IsValid() bool {
	return d == EntryDirectionDebit || d == EntryDirectionCredit
}

// String returns the string representation of EntryDirection
func (d EntryDirection) String() string {
	return string(d)
}

// Entry is one debit or credit line within a transaction. Entries are
// immutable once the owning transaction is committed.
type Entry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Direction     EntryDirection
	AmountMinor   int64
	Currency      valueobject.Currency
	Memo          string
	TransactionAt time.Time
}

// AmountMoney returns the entry amount as a Money value object
func (e *Entry) AmountMoney() valueobject.Money {
	return valueobject.MustNewMoney(e.AmountMinor, e.Currency)
}

// EntryInput describes one line of a transaction to be posted
type EntryInput struct {
	AccountID uuid.UUID
	Direction EntryDirection
	Amount    valueobject.Money
	Memo      string
}

// Transaction is an append-only ledger record. It is created once,
// atomically with its entries, and never mutated or deleted afterwards;
// corrections are made by posting an offsetting transaction.
type Transaction struct {
	shared.TenantAggregateRoot
	LedgerID      uuid.UUID
	ReferenceType string
	ReferenceID   uuid.UUID
	Description   string
	TransactionAt time.Time
	Currency      valueobject.Currency
	Entries       []Entry
}

// NewTransaction builds a balanced transaction from entry inputs. The
// balance invariant is checked here, before anything reaches storage:
// debits and credits must sum to the same amount, every entry must be
// non-negative and share the transaction currency.
func NewTransaction(
	tenantID, ledgerID uuid.UUID,
	referenceType string,
	referenceID uuid.UUID,
	description string,
	at time.Time,
	inputs []EntryInput,
) (*Transaction, error) {
	if ledgerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEDGER", "Ledger ID cannot be empty")
	}
	if referenceType == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference type cannot be empty")
	}
	if len(inputs) < 2 {
		return nil, ErrEmptyTransaction
	}

	currency := inputs[0].Amount.Currency()
	var debitSum, creditSum int64
	hasDebit, hasCredit := false, false

	for _, in := range inputs {
		if !in.Direction.IsValid() {
			return nil, shared.NewDomainError("INVALID_DIRECTION", fmt.Sprintf("Invalid entry direction %q", in.Direction))
		}
		if in.AccountID == uuid.Nil {
			return nil, ErrUnknownAccount
		}
		if in.Amount.IsNegative() {
			return nil, ErrNegativeEntryAmount
		}
		if in.Amount.Currency() != currency {
			return nil, ErrMixedEntryCurrency
		}
		switch in.Direction {
		case EntryDirectionDebit:
			debitSum += in.Amount.AmountMinor()
			hasDebit = true
		case EntryDirectionCredit:
			creditSum += in.Amount.AmountMinor()
			hasCredit = true
		}
	}

	if !hasDebit || !hasCredit {
		return nil, ErrEmptyTransaction
	}
	if debitSum != creditSum {
		return nil, ErrUnbalancedTransaction
	}

	txn := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LedgerID:            ledgerID,
		ReferenceType:       referenceType,
		ReferenceID:         referenceID,
		Description:         description,
		TransactionAt:       at,
		Currency:            currency,
		Entries:             make([]Entry, 0, len(inputs)),
	}

	for _, in := range inputs {
		txn.Entries = append(txn.Entries, Entry{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			AccountID:     in.AccountID,
			Direction:     in.Direction,
			AmountMinor:   in.Amount.AmountMinor(),
			Currency:      currency,
			Memo:          in.Memo,
			TransactionAt: at,
		})
	}

	txn.AddDomainEvent(NewTransactionPostedEvent(txn))

	return txn, nil
}

// DebitTotal returns the sum of all debit entries in minor units
func (t *Transaction) DebitTotal() int64 {
	var sum int64
	for _, e := range t.Entries {
		if e.Direction == EntryDirectionDebit {
			sum += e.AmountMinor
		}
	}
	return sum
}

// CreditTotal returns the sum of all credit entries in minor units
func (t *Transaction) CreditTotal() int64 {
	var sum int64
	for _, e := range t.Entries {
		if e.Direction == EntryDirectionCredit {
			sum += e.AmountMinor
		}
	}
	return sum
}

// IsBalanced rechecks the balance invariant over the committed entries
func (t *Transaction) IsBalanced() bool {
	return t.DebitTotal() == t.CreditTotal()
}

// Reverse builds an offsetting transaction: same entries with debit and
// credit swapped. This is the only sanctioned correction mechanism; history
// is never rewritten.
func (t *Transaction) Reverse(description string, at time.Time) (*Transaction, error) {
	inputs := make([]EntryInput, 0, len(t.Entries))
	for _, e := range t.Entries {
		direction := EntryDirectionDebit
		if e.Direction == EntryDirectionDebit {
			direction = EntryDirectionCredit
		}
		inputs = append(inputs, EntryInput{
			AccountID: e.AccountID,
			Direction: direction,
			Amount:    e.AmountMoney(),
			Memo:      e.Memo,
		})
	}
	return NewTransaction(t.TenantID, t.LedgerID, t.ReferenceType, t.ReferenceID, description, at, inputs)
}
