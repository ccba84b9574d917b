package persistence

import (
	"context"
	"errors"

	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinancialOrderRepository implements order.FinancialOrderRepository using GORM
type GormFinancialOrderRepository struct {
	db *gorm.DB
}

// NewGormFinancialOrderRepository creates a new GORM-backed order repository
func NewGormFinancialOrderRepository(db *gorm.DB) *GormFinancialOrderRepository {
	return &GormFinancialOrderRepository{db: db}
}

func (r *GormFinancialOrderRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID retrieves an order by ID within a tenant
func (r *GormFinancialOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.FinancialOrder, error) {
	var model models.FinancialOrderModel
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByOrderNumber retrieves an order by its business number within a tenant
func (r *GormFinancialOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*order.FinancialOrder, error) {
	var model models.FinancialOrderModel
	err := r.conn(ctx).Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByCustomer retrieves all orders of a customer, newest first
func (r *GormFinancialOrderRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*order.FinancialOrder, error) {
	var modelList []models.FinancialOrderModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	return toDomainOrders(modelList)
}

// FindByStatus retrieves all orders in a given lifecycle state
func (r *GormFinancialOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status order.OrderStatus) ([]*order.FinancialOrder, error) {
	var modelList []models.FinancialOrderModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(status)).
		Order("created_at DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	return toDomainOrders(modelList)
}

// Save persists an order without a version check
func (r *GormFinancialOrderRepository) Save(ctx context.Context, o *order.FinancialOrder) error {
	model, err := models.FinancialOrderModelFromDomain(o)
	if err != nil {
		return err
	}
	return r.conn(ctx).Save(model).Error
}

// SaveWithLock persists the order only if the stored version still matches
// expectedVersion. The version advances by one on success; a lost race
// surfaces as ErrConcurrencyConflict and leaves the aggregate untouched.
func (r *GormFinancialOrderRepository) SaveWithLock(ctx context.Context, o *order.FinancialOrder, expectedVersion int) error {
	o.Version = expectedVersion + 1
	model, err := models.FinancialOrderModelFromDomain(o)
	if err != nil {
		o.Version = expectedVersion
		return err
	}

	result := r.conn(ctx).Model(&models.FinancialOrderModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", o.ID, o.TenantID, expectedVersion).
		Select("*").
		Updates(model)
	if result.Error != nil {
		o.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		o.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toDomainOrders(modelList []models.FinancialOrderModel) ([]*order.FinancialOrder, error) {
	orders := make([]*order.FinancialOrder, len(modelList))
	for i := range modelList {
		o, err := modelList[i].ToDomain()
		if err != nil {
			return nil, err
		}
		orders[i] = o
	}
	return orders, nil
}

// GormRefundRepository implements order.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GORM-backed refund repository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

func (r *GormRefundRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID retrieves a refund by ID within a tenant
func (r *GormRefundRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.Refund, error) {
	var model models.RefundModel
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder retrieves all refunds against an order, oldest first
func (r *GormRefundRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*order.Refund, error) {
	var modelList []models.RefundModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	refunds := make([]*order.Refund, len(modelList))
	for i := range modelList {
		refunds[i] = modelList[i].ToDomain()
	}
	return refunds, nil
}

// Save persists a refund record
func (r *GormRefundRepository) Save(ctx context.Context, refund *order.Refund) error {
	model := models.RefundModelFromDomain(refund)
	return r.conn(ctx).Save(model).Error
}

// Interface guards
var (
	_ order.FinancialOrderRepository = (*GormFinancialOrderRepository)(nil)
	_ order.RefundRepository         = (*GormRefundRepository)(nil)
)
