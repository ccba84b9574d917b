package persistence

import (
	"context"
	"errors"

	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GORM-backed payment repository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID retrieves a payment by ID within a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder retrieves all payments against an order, oldest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*payment.Payment, error) {
	var modelList []models.PaymentModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	payments := make([]*payment.Payment, len(modelList))
	for i := range modelList {
		payments[i] = modelList[i].ToDomain()
	}
	return payments, nil
}

// FindByProviderPaymentID retrieves the payment holding a provider reference.
// Confirmation webhooks are keyed by this lookup, so duplicates resolve to
// the same payment.
func (r *GormPaymentRepository) FindByProviderPaymentID(ctx context.Context, tenantID uuid.UUID, providerPaymentID string) (*payment.Payment, error) {
	var model models.PaymentModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND provider_payment_id = ?", tenantID, providerPaymentID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists a payment without a version check
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock persists the payment only if the stored version still matches
// expectedVersion, returning ErrConcurrencyConflict otherwise
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment, expectedVersion int) error {
	p.Version = expectedVersion + 1
	model := models.PaymentModelFromDomain(p)

	result := r.conn(ctx).Model(&models.PaymentModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", p.ID, p.TenantID, expectedVersion).
		Select("*").
		Updates(model)
	if result.Error != nil {
		p.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		p.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)
