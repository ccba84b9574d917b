package invoice

import (
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceCreatedEvent is raised when a draft invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	OrderID       uuid.UUID `json:"order_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string { return "InvoiceCreated" }

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		OrderID:         i.OrderID,
		CustomerID:      i.CustomerID,
	}
}

// InvoiceIssuedEvent is raised when invoice lines are frozen
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	TotalMinor    int64     `json:"total_minor"`
	Currency      string    `json:"currency"`
}

// EventType returns the event type name
func (e *InvoiceIssuedEvent) EventType() string { return "InvoiceIssued" }

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(i *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceIssued", "Invoice", i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		TotalMinor:      i.TotalMinor,
		Currency:        string(i.Currency),
	}
}

// InvoicePartiallyPaidEvent is raised when a payment leaves a balance due
type InvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID `json:"invoice_id"`
	InvoiceNumber   string    `json:"invoice_number"`
	AmountMinor     int64     `json:"amount_minor"`
	BalanceDueMinor int64     `json:"balance_due_minor"`
}

// EventType returns the event type name
func (e *InvoicePartiallyPaidEvent) EventType() string { return "InvoicePartiallyPaid" }

// NewInvoicePartiallyPaidEvent creates a new InvoicePartiallyPaidEvent
func NewInvoicePartiallyPaidEvent(i *Invoice, amountMinor int64) *InvoicePartiallyPaidEvent {
	return &InvoicePartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePartiallyPaid", "Invoice", i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		AmountMinor:     amountMinor,
		BalanceDueMinor: i.BalanceDueMinor(),
	}
}

// InvoicePaidEvent is raised when the balance due reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	TotalMinor    int64     `json:"total_minor"`
	PaidMinor     int64     `json:"paid_minor"`
	CreditedMinor int64     `json:"credited_minor"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string { return "InvoicePaid" }

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(i *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		TotalMinor:      i.TotalMinor,
		PaidMinor:       i.PaidMinor,
		CreditedMinor:   i.CreditedMinor,
	}
}

// CreditNoteIssuedEvent is raised when a credit note reduces the balance
type CreditNoteIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID        uuid.UUID `json:"invoice_id"`
	CreditNoteID     uuid.UUID `json:"credit_note_id"`
	CreditNoteNumber string    `json:"credit_note_number"`
	AmountMinor      int64     `json:"amount_minor"`
	Reason           string    `json:"reason"`
}

// EventType returns the event type name
func (e *CreditNoteIssuedEvent) EventType() string { return "CreditNoteIssued" }

// NewCreditNoteIssuedEvent creates a new CreditNoteIssuedEvent
func NewCreditNoteIssuedEvent(i *Invoice, note *CreditNote) *CreditNoteIssuedEvent {
	return &CreditNoteIssuedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("CreditNoteIssued", "Invoice", i.ID, i.TenantID),
		InvoiceID:        i.ID,
		CreditNoteID:     note.ID,
		CreditNoteNumber: note.Number,
		AmountMinor:      note.AmountMinor,
		Reason:           note.Reason,
	}
}

// InvoiceVoidedEvent is raised when an invoice is cancelled
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
}

// EventType returns the event type name
func (e *InvoiceVoidedEvent) EventType() string { return "InvoiceVoided" }

// NewInvoiceVoidedEvent creates a new InvoiceVoidedEvent
func NewInvoiceVoidedEvent(i *Invoice) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceVoided", "Invoice", i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
	}
}
