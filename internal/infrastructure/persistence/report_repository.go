package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fincore/backend/internal/domain/reconciliation"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReportRepository implements reconciliation.ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GORM-backed report repository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

func (r *GormReportRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// Save persists a reconciliation report
func (r *GormReportRepository) Save(ctx context.Context, report *reconciliation.Report) error {
	model := models.ReconciliationReportModelFromDomain(report)
	return r.conn(ctx).Save(model).Error
}

// FindLatest retrieves the most recent report for a tenant
func (r *GormReportRepository) FindLatest(ctx context.Context, tenantID uuid.UUID) (*reconciliation.Report, error) {
	var model models.ReconciliationReportModel
	err := r.conn(ctx).
		Where("tenant_id = ?", tenantID).
		Order("generated_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSince retrieves all reports generated for a tenant since the given time
func (r *GormReportRepository) FindSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]*reconciliation.Report, error) {
	var modelList []models.ReconciliationReportModel
	err := r.conn(ctx).
		Where("tenant_id = ? AND generated_at >= ?", tenantID, since).
		Order("generated_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	reports := make([]*reconciliation.Report, len(modelList))
	for i := range modelList {
		reports[i] = modelList[i].ToDomain()
	}
	return reports, nil
}

var _ reconciliation.ReportRepository = (*GormReportRepository)(nil)
