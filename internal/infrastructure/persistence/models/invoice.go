package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InvoiceLineList stores invoice lines as a jsonb column
type InvoiceLineList []invoice.InvoiceLine

// Value implements driver.Valuer
func (l InvoiceLineList) Value() (driver.Value, error) {
	return json.Marshal([]invoice.InvoiceLine(l))
}

// Scan implements sql.Scanner
func (l *InvoiceLineList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// InvoicePaymentList stores applied payments as a jsonb column
type InvoicePaymentList []invoice.InvoicePayment

// Value implements driver.Valuer
func (l InvoicePaymentList) Value() (driver.Value, error) {
	return json.Marshal([]invoice.InvoicePayment(l))
}

// Scan implements sql.Scanner
func (l *InvoicePaymentList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// CreditNoteList stores credit notes as a jsonb column
type CreditNoteList []invoice.CreditNote

// Value implements driver.Valuer
func (l CreditNoteList) Value() (driver.Value, error) {
	return json.Marshal([]invoice.CreditNote(l))
}

// Scan implements sql.Scanner
func (l *CreditNoteList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// InvoiceModel is the GORM model for invoices
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string             `gorm:"type:varchar(64);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	OrderID       uuid.UUID          `gorm:"type:uuid;index"`
	CustomerID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	Status        string             `gorm:"type:varchar(16);not null;index"`
	Currency      string             `gorm:"type:varchar(3);not null"`
	Lines         InvoiceLineList    `gorm:"type:jsonb"`
	TotalMinor    int64              `gorm:"not null;default:0"`
	PaidMinor     int64              `gorm:"not null;default:0"`
	CreditedMinor int64              `gorm:"not null;default:0"`
	Payments      InvoicePaymentList `gorm:"type:jsonb"`
	CreditNotes   CreditNoteList     `gorm:"type:jsonb"`
	AllowOverpay  bool               `gorm:"not null;default:false"`
	OverpaidMinor int64              `gorm:"not null;default:0"`
	IssuedAt      *time.Time
	PaidAt        *time.Time
	VoidedAt      *time.Time
}

// TableName specifies the table name
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to a domain entity
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		OrderID:       m.OrderID,
		CustomerID:    m.CustomerID,
		Status:        invoice.InvoiceStatus(m.Status),
		Currency:      valueobject.Currency(m.Currency),
		Lines:         append([]invoice.InvoiceLine(nil), m.Lines...),
		TotalMinor:    m.TotalMinor,
		PaidMinor:     m.PaidMinor,
		CreditedMinor: m.CreditedMinor,
		Payments:      append([]invoice.InvoicePayment(nil), m.Payments...),
		CreditNotes:   append([]invoice.CreditNote(nil), m.CreditNotes...),
		AllowOverpay:  m.AllowOverpay,
		OverpaidMinor: m.OverpaidMinor,
		IssuedAt:      m.IssuedAt,
		PaidAt:        m.PaidAt,
		VoidedAt:      m.VoidedAt,
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	return inv
}

// FromDomain updates the model from a domain entity
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.OrderID = inv.OrderID
	m.CustomerID = inv.CustomerID
	m.Status = string(inv.Status)
	m.Currency = string(inv.Currency)
	m.Lines = InvoiceLineList(inv.Lines)
	m.TotalMinor = inv.TotalMinor
	m.PaidMinor = inv.PaidMinor
	m.CreditedMinor = inv.CreditedMinor
	m.Payments = InvoicePaymentList(inv.Payments)
	m.CreditNotes = CreditNoteList(inv.CreditNotes)
	m.AllowOverpay = inv.AllowOverpay
	m.OverpaidMinor = inv.OverpaidMinor
	m.IssuedAt = inv.IssuedAt
	m.PaidAt = inv.PaidAt
	m.VoidedAt = inv.VoidedAt
}

// InvoiceModelFromDomain creates a new model from a domain entity
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}
