package payment

import (
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

type paymentEventBody struct {
	PaymentID         uuid.UUID `json:"payment_id"`
	OrderID           uuid.UUID `json:"order_id"`
	AmountMinor       int64     `json:"amount_minor"`
	Currency          string    `json:"currency"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
}

func bodyFor(p *Payment) paymentEventBody {
	return paymentEventBody{
		PaymentID:         p.ID,
		OrderID:           p.OrderID,
		AmountMinor:       p.AmountMinor,
		Currency:          string(p.Currency),
		ProviderPaymentID: p.ProviderPaymentID,
	}
}

// PaymentCreatedEvent is raised when a payment attempt starts
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	paymentEventBody
}

// EventType returns the event type name
func (e *PaymentCreatedEvent) EventType() string { return "PaymentCreated" }

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentCreated", "Payment", p.ID, p.TenantID),
		paymentEventBody: bodyFor(p),
	}
}

// PaymentAuthorizedEvent is raised when the provider places a hold
type PaymentAuthorizedEvent struct {
	shared.BaseDomainEvent
	paymentEventBody
}

// EventType returns the event type name
func (e *PaymentAuthorizedEvent) EventType() string { return "PaymentAuthorized" }

// NewPaymentAuthorizedEvent creates a new PaymentAuthorizedEvent
func NewPaymentAuthorizedEvent(p *Payment) *PaymentAuthorizedEvent {
	return &PaymentAuthorizedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentAuthorized", "Payment", p.ID, p.TenantID),
		paymentEventBody: bodyFor(p),
	}
}

// PaymentSucceededEvent is raised exactly once per successful capture.
// Downstream money movement keys off this event, so replayed
// confirmations must never raise it again.
type PaymentSucceededEvent struct {
	shared.BaseDomainEvent
	paymentEventBody
}

// EventType returns the event type name
func (e *PaymentSucceededEvent) EventType() string { return "PaymentSucceeded" }

// NewPaymentSucceededEvent creates a new PaymentSucceededEvent
func NewPaymentSucceededEvent(p *Payment) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentSucceeded", "Payment", p.ID, p.TenantID),
		paymentEventBody: bodyFor(p),
	}
}

// PaymentFailedEvent is raised when a capture fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	paymentEventBody
	Reason string `json:"reason"`
}

// EventType returns the event type name
func (e *PaymentFailedEvent) EventType() string { return "PaymentFailed" }

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentFailed", "Payment", p.ID, p.TenantID),
		paymentEventBody: bodyFor(p),
		Reason:           reason,
	}
}

// PaymentCancelledEvent is raised when a pending payment is voided
type PaymentCancelledEvent struct {
	shared.BaseDomainEvent
	paymentEventBody
}

// EventType returns the event type name
func (e *PaymentCancelledEvent) EventType() string { return "PaymentCancelled" }

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent
func NewPaymentCancelledEvent(p *Payment) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentCancelled", "Payment", p.ID, p.TenantID),
		paymentEventBody: bodyFor(p),
	}
}

// PaymentRefundedEvent is raised when the provider confirms a refund
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	paymentEventBody
}

// EventType returns the event type name
func (e *PaymentRefundedEvent) EventType() string { return "PaymentRefunded" }

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(p *Payment) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("PaymentRefunded", "Payment", p.ID, p.TenantID),
		paymentEventBody: bodyFor(p),
	}
}
