package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OrderItemList stores order items as a jsonb column
type OrderItemList []order.FinancialOrderItem

// Value implements driver.Valuer
func (l OrderItemList) Value() (driver.Value, error) {
	return json.Marshal([]order.FinancialOrderItem(l))
}

// Scan implements sql.Scanner
func (l *OrderItemList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// TaxRateList stores tax rates as a jsonb column
type TaxRateList []order.TaxRate

// Value implements driver.Valuer
func (l TaxRateList) Value() (driver.Value, error) {
	return json.Marshal([]order.TaxRate(l))
}

// Scan implements sql.Scanner
func (l *TaxRateList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// TaxLineList stores computed tax lines as a jsonb column
type TaxLineList []order.TaxLine

// Value implements driver.Valuer
func (l TaxLineList) Value() (driver.Value, error) {
	return json.Marshal([]order.TaxLine(l))
}

// Scan implements sql.Scanner
func (l *TaxLineList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// FinancialOrderModel is the GORM model for financial orders
type FinancialOrderModel struct {
	TenantAggregateModel
	OrderNumber   string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	CustomerID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status        string        `gorm:"type:varchar(16);not null;index"`
	Currency      string        `gorm:"type:varchar(3);not null"`
	Items         OrderItemList `gorm:"type:jsonb"`
	TaxRates      TaxRateList   `gorm:"type:jsonb"`
	TaxLines      TaxLineList   `gorm:"type:jsonb"`
	DiscountMinor int64         `gorm:"not null;default:0"`
	SubtotalMinor int64         `gorm:"not null;default:0"`
	TaxTotalMinor int64         `gorm:"not null;default:0"`
	TotalMinor    int64         `gorm:"not null;default:0"`
	RefundedMinor int64         `gorm:"not null;default:0"`
	Snapshot      []byte        `gorm:"type:jsonb"`
	ProviderRef   string        `gorm:"type:varchar(255)"`
	FailureReason string        `gorm:"type:varchar(512)"`
	LockedAt      *time.Time
	PaidAt        *time.Time
}

// TableName specifies the table name
func (FinancialOrderModel) TableName() string {
	return "financial_orders"
}

// ToDomain converts the model to a domain entity
func (m *FinancialOrderModel) ToDomain() (*order.FinancialOrder, error) {
	o := &order.FinancialOrder{
		OrderNumber:   m.OrderNumber,
		CustomerID:    m.CustomerID,
		Status:        order.OrderStatus(m.Status),
		Currency:      valueobject.Currency(m.Currency),
		Items:         append([]order.FinancialOrderItem(nil), m.Items...),
		TaxRates:      append([]order.TaxRate(nil), m.TaxRates...),
		TaxLines:      append([]order.TaxLine(nil), m.TaxLines...),
		DiscountMinor: m.DiscountMinor,
		SubtotalMinor: m.SubtotalMinor,
		TaxTotalMinor: m.TaxTotalMinor,
		TotalMinor:    m.TotalMinor,
		RefundedMinor: m.RefundedMinor,
		ProviderRef:   m.ProviderRef,
		FailureReason: m.FailureReason,
		LockedAt:      m.LockedAt,
		PaidAt:        m.PaidAt,
	}
	if len(m.Snapshot) > 0 {
		var snapshot order.OrderSnapshot
		if err := json.Unmarshal(m.Snapshot, &snapshot); err != nil {
			return nil, err
		}
		o.Snapshot = &snapshot
	}
	m.PopulateTenantAggregateRoot(&o.TenantAggregateRoot)
	return o, nil
}

// FromDomain updates the model from a domain entity
func (m *FinancialOrderModel) FromDomain(o *order.FinancialOrder) error {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.Status = string(o.Status)
	m.Currency = string(o.Currency)
	m.Items = OrderItemList(o.Items)
	m.TaxRates = TaxRateList(o.TaxRates)
	m.TaxLines = TaxLineList(o.TaxLines)
	m.DiscountMinor = o.DiscountMinor
	m.SubtotalMinor = o.SubtotalMinor
	m.TaxTotalMinor = o.TaxTotalMinor
	m.TotalMinor = o.TotalMinor
	m.RefundedMinor = o.RefundedMinor
	m.ProviderRef = o.ProviderRef
	m.FailureReason = o.FailureReason
	m.LockedAt = o.LockedAt
	m.PaidAt = o.PaidAt
	m.Snapshot = nil
	if o.Snapshot != nil {
		data, err := json.Marshal(o.Snapshot)
		if err != nil {
			return err
		}
		m.Snapshot = data
	}
	return nil
}

// FinancialOrderModelFromDomain creates a new model from a domain entity
func FinancialOrderModelFromDomain(o *order.FinancialOrder) (*FinancialOrderModel, error) {
	m := &FinancialOrderModel{}
	if err := m.FromDomain(o); err != nil {
		return nil, err
	}
	return m, nil
}

// RefundModel is the GORM model for refund audit records
type RefundModel struct {
	TenantAggregateModel
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountMinor int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	Reason      string    `gorm:"type:varchar(512)"`
	Status      string    `gorm:"type:varchar(16);not null"`
	ProviderRef string    `gorm:"type:varchar(255)"`
	CompletedAt *time.Time
}

// TableName specifies the table name
func (RefundModel) TableName() string {
	return "order_refunds"
}

// ToDomain converts the model to a domain entity
func (m *RefundModel) ToDomain() *order.Refund {
	r := &order.Refund{
		OrderID:     m.OrderID,
		AmountMinor: m.AmountMinor,
		Currency:    valueobject.Currency(m.Currency),
		Reason:      m.Reason,
		Status:      order.RefundStatus(m.Status),
		ProviderRef: m.ProviderRef,
		CompletedAt: m.CompletedAt,
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// FromDomain updates the model from a domain entity
func (m *RefundModel) FromDomain(r *order.Refund) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.OrderID = r.OrderID
	m.AmountMinor = r.AmountMinor
	m.Currency = string(r.Currency)
	m.Reason = r.Reason
	m.Status = string(r.Status)
	m.ProviderRef = r.ProviderRef
	m.CompletedAt = r.CompletedAt
}

// RefundModelFromDomain creates a new model from a domain entity
func RefundModelFromDomain(r *order.Refund) *RefundModel {
	m := &RefundModel{}
	m.FromDomain(r)
	return m
}
