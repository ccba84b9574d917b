package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using
// GORM. Transactions are insert-only; no update or delete is offered.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM-backed transaction repository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) conn(ctx context.Context) *gorm.DB {
	return DBFromContext(ctx, r.db).WithContext(ctx)
}

// Save inserts the transaction header and all entries atomically. The
// explicit transaction matters here because the global GORM config skips
// default transactions; joining an ambient transaction from the context
// turns this into a savepoint.
func (r *GormTransactionRepository) Save(ctx context.Context, t *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
}

// FindByID retrieves a transaction with its entries
func (r *GormTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	err := r.conn(ctx).
		Preload("Entries").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference retrieves all transactions posted against a reference
func (r *GormTransactionRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]*ledger.Transaction, error) {
	var modelList []models.TransactionModel
	err := r.conn(ctx).
		Preload("Entries").
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, referenceType, referenceID).
		Order("transaction_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	return toDomainTransactions(modelList), nil
}

// FindByLedger retrieves all transactions of a ledger in posting order
func (r *GormTransactionRepository) FindByLedger(ctx context.Context, tenantID, ledgerID uuid.UUID) ([]*ledger.Transaction, error) {
	var modelList []models.TransactionModel
	err := r.conn(ctx).
		Preload("Entries").
		Where("tenant_id = ? AND ledger_id = ?", tenantID, ledgerID).
		Order("transaction_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}
	return toDomainTransactions(modelList), nil
}

// EntriesForAccount returns all committed entries for an account, optionally
// bounded by an as-of time, ordered by transaction time
func (r *GormTransactionRepository) EntriesForAccount(ctx context.Context, tenantID, accountID uuid.UUID, asOf *time.Time) ([]ledger.Entry, error) {
	query := r.conn(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID)
	if asOf != nil {
		query = query.Where("transaction_at <= ?", *asOf)
	}

	var rows []models.EntryModel
	if err := query.Order("transaction_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(rows))
	for i, e := range rows {
		entries[i] = ledger.Entry{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			AccountID:     e.AccountID,
			Direction:     ledger.EntryDirection(e.Direction),
			AmountMinor:   e.AmountMinor,
			Currency:      valueobject.Currency(e.Currency),
			Memo:          e.Memo,
			TransactionAt: e.TransactionAt,
		}
	}
	return entries, nil
}

func toDomainTransactions(modelList []models.TransactionModel) []*ledger.Transaction {
	transactions := make([]*ledger.Transaction, len(modelList))
	for i := range modelList {
		transactions[i] = modelList[i].ToDomain()
	}
	return transactions
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
