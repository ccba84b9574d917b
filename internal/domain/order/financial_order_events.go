package order

import (
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderCreatedEvent is raised when a draft order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Currency    string    `json:"currency"`
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return "FinancialOrderCreated"
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *FinancialOrder) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialOrderCreated", "FinancialOrder", o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Currency:        string(o.Currency),
	}
}

// OrderLockedEvent is raised when order financials are frozen
type OrderLockedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	SubtotalMinor int64     `json:"subtotal_minor"`
	TaxTotalMinor int64     `json:"tax_total_minor"`
	TotalMinor    int64     `json:"total_minor"`
	Currency      string    `json:"currency"`
}

// EventType returns the event type name
func (e *OrderLockedEvent) EventType() string {
	return "FinancialOrderLocked"
}

// NewOrderLockedEvent creates a new OrderLockedEvent
func NewOrderLockedEvent(o *FinancialOrder) *OrderLockedEvent {
	return &OrderLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialOrderLocked", "FinancialOrder", o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		SubtotalMinor:   o.SubtotalMinor,
		TaxTotalMinor:   o.TaxTotalMinor,
		TotalMinor:      o.TotalMinor,
		Currency:        string(o.Currency),
	}
}

// OrderPaidEvent is raised when payment for an order is captured
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	TotalMinor  int64     `json:"total_minor"`
	Currency    string    `json:"currency"`
	ProviderRef string    `json:"provider_ref"`
}

// EventType returns the event type name
func (e *OrderPaidEvent) EventType() string {
	return "FinancialOrderPaid"
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *FinancialOrder) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialOrderPaid", "FinancialOrder", o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		TotalMinor:      o.TotalMinor,
		Currency:        string(o.Currency),
		ProviderRef:     o.ProviderRef,
	}
}

// OrderRefundedEvent is raised for each refund applied to an order
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	AmountMinor   int64     `json:"amount_minor"`
	RefundedMinor int64     `json:"refunded_minor"`
	Currency      string    `json:"currency"`
	Reason        string    `json:"reason"`
	FullyRefunded bool      `json:"fully_refunded"`
}

// EventType returns the event type name
func (e *OrderRefundedEvent) EventType() string {
	return "FinancialOrderRefunded"
}

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(o *FinancialOrder, amountMinor int64, reason string, fullyRefunded bool) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialOrderRefunded", "FinancialOrder", o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		AmountMinor:     amountMinor,
		RefundedMinor:   o.RefundedMinor,
		Currency:        string(o.Currency),
		Reason:          reason,
		FullyRefunded:   fullyRefunded,
	}
}

// OrderFailedEvent is raised when a pending order fails
type OrderFailedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
}

// EventType returns the event type name
func (e *OrderFailedEvent) EventType() string {
	return "FinancialOrderFailed"
}

// NewOrderFailedEvent creates a new OrderFailedEvent
func NewOrderFailedEvent(o *FinancialOrder, reason string) *OrderFailedEvent {
	return &OrderFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialOrderFailed", "FinancialOrder", o.ID, o.TenantID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Reason:          reason,
	}
}
