package payment

import (
	"fmt"
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Typed failures for the payment state machine
var (
	ErrInvalidPaymentTransition = shared.NewDomainError("INVALID_PAYMENT_TRANSITION", "Payment state transition is not allowed")
	ErrPaymentAlreadyProcessed  = shared.NewDomainError("PAYMENT_ALREADY_PROCESSED", "Payment confirmation was already processed")
	ErrPaymentNotRefundable     = shared.NewDomainError("PAYMENT_NOT_REFUNDABLE", "Only succeeded payments can be refunded")
	ErrProviderPaymentMismatch  = shared.NewDomainError("PROVIDER_PAYMENT_MISMATCH", "Provider payment ID does not match this payment")
)

// PaymentStatus represents the state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusSucceeded  PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// allowedTransitions is the single source of truth for the state machine.
// Failed, cancelled and refunded are terminal.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusAuthorized, PaymentStatusCancelled},
	PaymentStatusAuthorized: {PaymentStatusSucceeded, PaymentStatusFailed},
	PaymentStatusSucceeded:  {PaymentStatusRefunded},
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusAuthorized, PaymentStatusSucceeded,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if transition to target status is allowed
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status allows no further transitions
func (s PaymentStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Payment tracks one payment attempt against a financial order
type Payment struct {
	shared.TenantAggregateRoot
	OrderID           uuid.UUID
	AmountMinor       int64
	Currency          valueobject.Currency
	Status            PaymentStatus
	ProviderPaymentID string
	FailureReason     string
	AuthorizedAt      *time.Time
	SucceededAt       *time.Time
}

// NewPayment creates a pending payment for an order
func NewPayment(tenantID, orderID uuid.UUID, amount valueobject.Money) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		AmountMinor:         amount.AmountMinor(),
		Currency:            amount.Currency(),
		Status:              PaymentStatusPending,
	}
	p.AddDomainEvent(NewPaymentCreatedEvent(p))
	return p, nil
}

func (p *Payment) transitionTo(target PaymentStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError(
			ErrInvalidPaymentTransition.Code,
			fmt.Sprintf("Cannot transition payment from %s to %s", p.Status, target),
		)
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	return nil
}

// Authorize records a provider authorization hold
func (p *Payment) Authorize(providerPaymentID string) error {
	if providerPaymentID == "" {
		return shared.NewDomainError("INVALID_PROVIDER_REF", "Provider payment ID cannot be empty")
	}
	if err := p.transitionTo(PaymentStatusAuthorized); err != nil {
		return err
	}
	now := time.Now()
	p.ProviderPaymentID = providerPaymentID
	p.AuthorizedAt = &now

	p.AddDomainEvent(NewPaymentAuthorizedEvent(p))
	return nil
}

// Confirm records a successful capture. Confirming the same provider
// payment twice is a harmless no-op; it reports alreadyProcessed so
// callers can skip side effects. The succeeded event is raised only on
// the actual transition, never on the replay. The provider payment ID is
// set at most once; a capture reported under a different ID is rejected.
func (p *Payment) Confirm(providerPaymentID string) (alreadyProcessed bool, err error) {
	if p.ProviderPaymentID != "" && p.ProviderPaymentID != providerPaymentID {
		return false, ErrProviderPaymentMismatch
	}
	if p.Status == PaymentStatusSucceeded {
		return true, nil
	}
	if err := p.transitionTo(PaymentStatusSucceeded); err != nil {
		return false, err
	}
	now := time.Now()
	p.ProviderPaymentID = providerPaymentID
	p.SucceededAt = &now

	p.AddDomainEvent(NewPaymentSucceededEvent(p))
	return false, nil
}

// Fail records a provider capture failure
func (p *Payment) Fail(reason string) error {
	if err := p.transitionTo(PaymentStatusFailed); err != nil {
		return err
	}
	p.FailureReason = reason

	p.AddDomainEvent(NewPaymentFailedEvent(p, reason))
	return nil
}

// Cancel voids a pending payment before authorization
func (p *Payment) Cancel() error {
	if err := p.transitionTo(PaymentStatusCancelled); err != nil {
		return err
	}
	p.AddDomainEvent(NewPaymentCancelledEvent(p))
	return nil
}

// MarkRefunded records that the provider confirmed a refund of this
// payment. The caller must have already received gateway success; the
// state never advances on a gateway failure.
func (p *Payment) MarkRefunded() error {
	if p.Status != PaymentStatusSucceeded {
		return ErrPaymentNotRefundable
	}
	if err := p.transitionTo(PaymentStatusRefunded); err != nil {
		return err
	}
	p.AddDomainEvent(NewPaymentRefundedEvent(p))
	return nil
}

// Amount returns the payment amount as Money
func (p *Payment) Amount() valueobject.Money {
	return valueobject.MustNewMoney(p.AmountMinor, p.Currency)
}
