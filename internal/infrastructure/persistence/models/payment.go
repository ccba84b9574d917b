package models

import (
	"time"

	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentModel is the GORM model for payments
type PaymentModel struct {
	TenantAggregateModel
	OrderID           uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountMinor       int64     `gorm:"not null"`
	Currency          string    `gorm:"type:varchar(3);not null"`
	Status            string    `gorm:"type:varchar(16);not null;index"`
	ProviderPaymentID string    `gorm:"type:varchar(255);index:idx_payment_tenant_provider,priority:2"`
	FailureReason     string    `gorm:"type:varchar(512)"`
	AuthorizedAt      *time.Time
	SucceededAt       *time.Time
}

// TableName specifies the table name
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain entity
func (m *PaymentModel) ToDomain() *payment.Payment {
	p := &payment.Payment{
		OrderID:           m.OrderID,
		AmountMinor:       m.AmountMinor,
		Currency:          valueobject.Currency(m.Currency),
		Status:            payment.PaymentStatus(m.Status),
		ProviderPaymentID: m.ProviderPaymentID,
		FailureReason:     m.FailureReason,
		AuthorizedAt:      m.AuthorizedAt,
		SucceededAt:       m.SucceededAt,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain updates the model from a domain entity
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.OrderID = p.OrderID
	m.AmountMinor = p.AmountMinor
	m.Currency = string(p.Currency)
	m.Status = string(p.Status)
	m.ProviderPaymentID = p.ProviderPaymentID
	m.FailureReason = p.FailureReason
	m.AuthorizedAt = p.AuthorizedAt
	m.SucceededAt = p.SucceededAt
}

// PaymentModelFromDomain creates a new model from a domain entity
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
