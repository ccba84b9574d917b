package persistence

import (
	"context"
	"errors"

	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerRepository implements ledger.LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GORM-backed ledger repository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID retrieves a ledger by ID within a tenant
func (r *GormLedgerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Ledger, error) {
	var model models.LedgerModel
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant retrieves the ledger owned by a tenant
func (r *GormLedgerRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.Ledger, error) {
	var model models.LedgerModel
	err := r.conn(ctx).Where("tenant_id = ?", tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListTenants returns every tenant that owns a ledger
func (r *GormLedgerRepository) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := r.conn(ctx).Model(&models.LedgerModel{}).
		Distinct().
		Order("tenant_id ASC").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// Save persists a ledger
func (r *GormLedgerRepository) Save(ctx context.Context, l *ledger.Ledger) error {
	model := models.LedgerModelFromDomain(l)
	return r.conn(ctx).Save(model).Error
}

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GORM-backed account repository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID retrieves an account by ID within a tenant
func (r *GormAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	err := r.conn(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode retrieves an account by its chart-of-accounts code
func (r *GormAccountRepository) FindByCode(ctx context.Context, tenantID, ledgerID uuid.UUID, code string) (*ledger.Account, error) {
	var model models.AccountModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND ledger_id = ? AND code = ?", tenantID, ledgerID, code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLedger retrieves all accounts of a ledger ordered by code
func (r *GormAccountRepository) FindByLedger(ctx context.Context, tenantID, ledgerID uuid.UUID) ([]*ledger.Account, error) {
	var modelList []models.AccountModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND ledger_id = ?", tenantID, ledgerID).
		Order("code ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	accounts := make([]*ledger.Account, len(modelList))
	for i := range modelList {
		accounts[i] = modelList[i].ToDomain()
	}
	return accounts, nil
}

// Save persists an account
func (r *GormAccountRepository) Save(ctx context.Context, a *ledger.Account) error {
	model := models.AccountModelFromDomain(a)
	return r.conn(ctx).Save(model).Error
}

// Interface guards
var (
	_ ledger.LedgerRepository  = (*GormLedgerRepository)(nil)
	_ ledger.AccountRepository = (*GormAccountRepository)(nil)
)
