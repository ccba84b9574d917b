package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*Payment, error)
	FindByProviderPaymentID(ctx context.Context, tenantID uuid.UUID, providerPaymentID string) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
	// SaveWithLock persists the payment only if the stored version still
	// matches expectedVersion, returning ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, p *Payment, expectedVersion int) error
}
