package invoice

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*Invoice, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*Invoice, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status InvoiceStatus) ([]*Invoice, error)
	Save(ctx context.Context, i *Invoice) error
	// SaveWithLock persists the invoice only if the stored version still
	// matches expectedVersion, returning ErrConcurrencyConflict otherwise
	SaveWithLock(ctx context.Context, i *Invoice, expectedVersion int) error
	NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
