package persistence

import (
	"context"

	"github.com/fincore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// txKey is the context key carrying the active gorm transaction
type txKey struct{}

// GormTxManager implements shared.TxManager backed by gorm transactions
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new transaction manager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx runs fn inside a database transaction. If the context already
// carries a transaction the function joins it, so nested service calls
// commit or roll back together with the outermost caller.
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// DBFromContext returns the transaction carried by the context, or the
// fallback handle when no transaction is active
func DBFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

// Ensure GormTxManager implements TxManager
var _ shared.TxManager = (*GormTxManager)(nil)
