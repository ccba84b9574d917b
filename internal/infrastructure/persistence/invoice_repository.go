package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoice.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GORM-backed invoice repository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID retrieves an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceNumber retrieves an invoice by its business number
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder retrieves the invoice issued for an order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer retrieves all invoices of a customer, newest first
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*invoice.Invoice, error) {
	var modelList []models.InvoiceModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	return toDomainInvoices(modelList), nil
}

// FindByStatus retrieves all invoices in a given lifecycle state
func (r *GormInvoiceRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status invoice.InvoiceStatus) ([]*invoice.Invoice, error) {
	var modelList []models.InvoiceModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(status)).
		Order("created_at DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	return toDomainInvoices(modelList), nil
}

// Save persists an invoice without a version check
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock persists the invoice only if the stored version still matches
// expectedVersion, returning ErrConcurrencyConflict otherwise
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *invoice.Invoice, expectedVersion int) error {
	inv.Version = expectedVersion + 1
	model := models.InvoiceModelFromDomain(inv)

	result := r.conn(ctx).Model(&models.InvoiceModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", inv.ID, inv.TenantID, expectedVersion).
		Select("*").
		Updates(model)
	if result.Error != nil {
		inv.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		inv.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// NextInvoiceNumber generates the next sequential invoice number for a
// tenant, in the form INV-YYYYMMDD-00001. The sequence restarts daily; the
// unique index on (tenant_id, invoice_number) catches the rare race between
// two generators.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("20060102"))

	var numbers []string
	err := r.conn(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND invoice_number LIKE ?", tenantID, prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", err
	}

	next := 1
	if len(numbers) > 0 {
		var seq int
		if _, err := fmt.Sscanf(numbers[0][len(prefix):], "%d", &seq); err == nil {
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

func toDomainInvoices(modelList []models.InvoiceModel) []*invoice.Invoice {
	invoices := make([]*invoice.Invoice, len(modelList))
	for i := range modelList {
		invoices[i] = modelList[i].ToDomain()
	}
	return invoices
}

var _ invoice.InvoiceRepository = (*GormInvoiceRepository)(nil)
