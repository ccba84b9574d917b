package order

import (
	"context"

	"github.com/google/uuid"
)

// FinancialOrderRepository persists financial orders
type FinancialOrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*FinancialOrder, error)
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*FinancialOrder, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*FinancialOrder, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status OrderStatus) ([]*FinancialOrder, error)
	Save(ctx context.Context, o *FinancialOrder) error
	// SaveWithLock persists the order only if the stored version still
	// matches expectedVersion, returning ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, o *FinancialOrder, expectedVersion int) error
}

// RefundRepository persists refund records
type RefundRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Refund, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*Refund, error)
	Save(ctx context.Context, r *Refund) error
}
