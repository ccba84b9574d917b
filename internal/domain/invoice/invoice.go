package invoice

import (
	"fmt"
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Typed failures for the invoice lifecycle
var (
	ErrInvoiceLocked           = shared.NewDomainError("INVOICE_LOCKED", "Invoice lines are locked and cannot be modified")
	ErrInvoiceNotIssued        = shared.NewDomainError("INVOICE_NOT_ISSUED", "Operation requires an issued invoice")
	ErrOverpayment             = shared.NewDomainError("OVERPAYMENT", "Payment exceeds the invoice balance due")
	ErrInvoiceHasPayments      = shared.NewDomainError("INVOICE_HAS_PAYMENTS", "Invoice with recorded payments or credit notes cannot be voided")
	ErrInvoiceHasNoLines       = shared.NewDomainError("INVOICE_HAS_NO_LINES", "Invoice must have at least one line before issuing")
	ErrCreditExceedsBalance    = shared.NewDomainError("CREDIT_EXCEEDS_BALANCE", "Credit note exceeds the invoice balance due")
	ErrInvoiceCurrencyMismatch = shared.NewDomainError("INVOICE_CURRENCY_MISMATCH", "Amount currency does not match the invoice currency")
	ErrInvalidInvoiceState     = shared.NewDomainError("INVALID_INVOICE_STATE", "Operation is not allowed in the current invoice state")
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// VoidPolicy controls whether invoices with payments may be voided.
// Strict is the default; lenient tenants accept voiding a partially paid
// invoice after the payments are refunded out of band.
type VoidPolicy string

const (
	VoidPolicyStrict  VoidPolicy = "STRICT"
	VoidPolicyLenient VoidPolicy = "LENIENT"
)

// InvoiceLine is one billed line on an invoice
type InvoiceLine struct {
	ID             uuid.UUID       `json:"id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceMinor int64           `json:"unit_price_minor"`
	LineTotalMinor int64           `json:"line_total_minor"`
}

// InvoicePayment records one payment applied to an invoice
type InvoicePayment struct {
	ID          uuid.UUID `json:"id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	AmountMinor int64     `json:"amount_minor"`
	AppliedAt   time.Time `json:"applied_at"`
}

// CreditNote reduces the amount owed on an issued invoice without touching
// its immutable lines
type CreditNote struct {
	ID          uuid.UUID `json:"id"`
	Number      string    `json:"number"`
	AmountMinor int64     `json:"amount_minor"`
	Reason      string    `json:"reason"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Invoice is the billing document for a financial order. Lines are mutable
// only in draft; issuing freezes them permanently. Adjustments after issue
// go through credit notes.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	Status        InvoiceStatus
	Currency      valueobject.Currency
	Lines         []InvoiceLine
	TotalMinor    int64
	PaidMinor     int64
	CreditedMinor int64
	Payments      []InvoicePayment
	CreditNotes   []CreditNote
	AllowOverpay  bool
	OverpaidMinor int64
	IssuedAt      *time.Time
	PaidAt        *time.Time
	VoidedAt      *time.Time
}

// NewInvoice creates a draft invoice for an order
func NewInvoice(tenantID, orderID, customerID uuid.UUID, invoiceNumber string, currency valueobject.Currency) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Invoice currency is not a valid currency code")
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		OrderID:             orderID,
		CustomerID:          customerID,
		Status:              InvoiceStatusDraft,
		Currency:            currency,
		Lines:               []InvoiceLine{},
		Payments:            []InvoicePayment{},
		CreditNotes:         []CreditNote{},
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// IsLocked reports whether invoice lines are frozen
func (i *Invoice) IsLocked() bool {
	return i.Status != InvoiceStatusDraft
}

// AddLine adds a billed line to a draft invoice
func (i *Invoice) AddLine(description string, quantity decimal.Decimal, unitPriceMinor int64) error {
	if i.IsLocked() {
		return ErrInvoiceLocked
	}
	if description == "" {
		return shared.NewDomainError("INVALID_LINE", "Line description cannot be empty")
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPriceMinor < 0 {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	unit := valueobject.MustNewMoney(unitPriceMinor, i.Currency)
	line := InvoiceLine{
		ID:             uuid.New(),
		Description:    description,
		Quantity:       quantity,
		UnitPriceMinor: unitPriceMinor,
		LineTotalMinor: unit.MultiplyDecimal(quantity).AmountMinor(),
	}
	i.Lines = append(i.Lines, line)
	i.recalculateTotal()
	i.UpdatedAt = time.Now()
	return nil
}

// RemoveLine removes a line from a draft invoice
func (i *Invoice) RemoveLine(lineID uuid.UUID) error {
	if i.IsLocked() {
		return ErrInvoiceLocked
	}
	for idx, line := range i.Lines {
		if line.ID == lineID {
			i.Lines = append(i.Lines[:idx], i.Lines[idx+1:]...)
			i.recalculateTotal()
			i.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

func (i *Invoice) recalculateTotal() {
	var total int64
	for _, line := range i.Lines {
		total += line.LineTotalMinor
	}
	i.TotalMinor = total
}

// Issue freezes the invoice lines and moves it to ISSUED
func (i *Invoice) Issue() error {
	if i.Status != InvoiceStatusDraft {
		return invalidState(i.Status, "issue")
	}
	if len(i.Lines) == 0 {
		return ErrInvoiceHasNoLines
	}

	i.recalculateTotal()
	now := time.Now()
	i.Status = InvoiceStatusIssued
	i.IssuedAt = &now
	i.UpdatedAt = now

	i.AddDomainEvent(NewInvoiceIssuedEvent(i))
	return nil
}

// BalanceDueMinor is the amount still owed: total minus payments and
// credits, never below zero
func (i *Invoice) BalanceDueMinor() int64 {
	due := i.TotalMinor - i.PaidMinor - i.CreditedMinor
	if due < 0 {
		return 0
	}
	return due
}

// BalanceDue returns the balance due as Money
func (i *Invoice) BalanceDue() valueobject.Money {
	return valueobject.MustNewMoney(i.BalanceDueMinor(), i.Currency)
}

// ApplyPayment records a payment against an issued invoice. Payments above
// the balance due are rejected unless the invoice explicitly allows
// overpayment, in which case the excess is tracked as customer credit.
func (i *Invoice) ApplyPayment(paymentID uuid.UUID, amount valueobject.Money) error {
	if i.Status != InvoiceStatusIssued && i.Status != InvoiceStatusPartiallyPaid {
		return invalidState(i.Status, "apply payment to")
	}
	if amount.Currency() != i.Currency {
		return ErrInvoiceCurrencyMismatch
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	due := i.BalanceDueMinor()
	excess := amount.AmountMinor() - due
	if excess > 0 && !i.AllowOverpay {
		return shared.NewDomainError(
			ErrOverpayment.Code,
			fmt.Sprintf("Payment of %d exceeds balance due of %d", amount.AmountMinor(), due),
		)
	}

	now := time.Now()
	i.Payments = append(i.Payments, InvoicePayment{
		ID:          uuid.New(),
		PaymentID:   paymentID,
		AmountMinor: amount.AmountMinor(),
		AppliedAt:   now,
	})
	i.PaidMinor += amount.AmountMinor()
	if excess > 0 {
		i.OverpaidMinor += excess
	}

	if i.BalanceDueMinor() == 0 {
		i.Status = InvoiceStatusPaid
		i.PaidAt = &now
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	} else {
		i.Status = InvoiceStatusPartiallyPaid
		i.AddDomainEvent(NewInvoicePartiallyPaidEvent(i, amount.AmountMinor()))
	}
	i.UpdatedAt = now
	return nil
}

// CreateCreditNote reduces the balance due on an issued invoice. The
// credit can never push the balance below zero.
func (i *Invoice) CreateCreditNote(amount valueobject.Money, reason string) (*CreditNote, error) {
	if i.Status != InvoiceStatusIssued && i.Status != InvoiceStatusPartiallyPaid {
		return nil, invalidState(i.Status, "credit")
	}
	if amount.Currency() != i.Currency {
		return nil, ErrInvoiceCurrencyMismatch
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if amount.AmountMinor() > i.BalanceDueMinor() {
		return nil, ErrCreditExceedsBalance
	}

	now := time.Now()
	note := CreditNote{
		ID:          uuid.New(),
		Number:      fmt.Sprintf("%s-CN-%d", i.InvoiceNumber, len(i.CreditNotes)+1),
		AmountMinor: amount.AmountMinor(),
		Reason:      reason,
		IssuedAt:    now,
	}
	i.CreditNotes = append(i.CreditNotes, note)
	i.CreditedMinor += amount.AmountMinor()

	if i.BalanceDueMinor() == 0 {
		i.Status = InvoiceStatusPaid
		i.PaidAt = &now
	}
	i.UpdatedAt = now

	i.AddDomainEvent(NewCreditNoteIssuedEvent(i, &note))
	return &note, nil
}

// Void cancels an issued invoice. Under the strict policy an invoice with
// any recorded payment or credit note cannot be voided; lenient tenants may
// void one anyway once its payments have been refunded elsewhere.
func (i *Invoice) Void(policy VoidPolicy) error {
	if i.Status != InvoiceStatusIssued && i.Status != InvoiceStatusPartiallyPaid {
		return invalidState(i.Status, "void")
	}
	if (len(i.Payments) > 0 || len(i.CreditNotes) > 0) && policy != VoidPolicyLenient {
		return ErrInvoiceHasPayments
	}

	now := time.Now()
	i.Status = InvoiceStatusVoid
	i.VoidedAt = &now
	i.UpdatedAt = now

	i.AddDomainEvent(NewInvoiceVoidedEvent(i))
	return nil
}

func invalidState(s InvoiceStatus, op string) error {
	return shared.NewDomainError(
		ErrInvalidInvoiceState.Code,
		fmt.Sprintf("Cannot %s invoice in state %s", op, s),
	)
}
