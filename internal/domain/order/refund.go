package order

import (
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RefundStatus represents the state of a refund record
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// IsValid checks if the status is a valid RefundStatus
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPending, RefundStatusCompleted, RefundStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of RefundStatus
func (s RefundStatus) String() string {
	return string(s)
}

// Refund is the audit record of one refund against an order. Completed
// refunds are immutable.
type Refund struct {
	shared.TenantAggregateRoot
	OrderID     uuid.UUID
	AmountMinor int64
	Currency    valueobject.Currency
	Reason      string
	Status      RefundStatus
	ProviderRef string
	CompletedAt *time.Time
}

// NewRefund creates a pending refund record for an order
func NewRefund(tenantID, orderID uuid.UUID, amount valueobject.Money, reason string) (*Refund, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, ErrRefundNotPositive
	}
	return &Refund{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		AmountMinor:         amount.AmountMinor(),
		Currency:            amount.Currency(),
		Reason:              reason,
		Status:              RefundStatusPending,
	}, nil
}

// Complete marks the refund as settled by the payment provider
func (r *Refund) Complete(providerRef string) error {
	if r.Status != RefundStatusPending {
		return shared.ErrInvalidState
	}
	now := time.Now()
	r.Status = RefundStatusCompleted
	r.ProviderRef = providerRef
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// MarkFailed records that the provider rejected the refund
func (r *Refund) MarkFailed() error {
	if r.Status != RefundStatusPending {
		return shared.ErrInvalidState
	}
	r.Status = RefundStatusFailed
	r.UpdatedAt = time.Now()
	return nil
}

// Amount returns the refund amount as Money
func (r *Refund) Amount() valueobject.Money {
	return valueobject.MustNewMoney(r.AmountMinor, r.Currency)
}
