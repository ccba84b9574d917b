package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTxManagerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.RefundModel{})
	require.NoError(t, err)

	return db
}

func newTestRefund(t *testing.T, tenantID uuid.UUID) *order.Refund {
	t.Helper()
	refund, err := order.NewRefund(tenantID, uuid.New(), valueobject.MustNewMoney(1000, valueobject.USD), "test")
	require.NoError(t, err)
	return refund
}

func TestGormTxManager_WithinTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db := setupTxManagerTestDB(t)
		manager := NewGormTxManager(db)
		repo := NewGormRefundRepository(db)
		tenantID := uuid.New()
		refund := newTestRefund(t, tenantID)

		err := manager.WithinTx(context.Background(), func(ctx context.Context) error {
			return repo.Save(ctx, refund)
		})
		require.NoError(t, err)

		found, err := repo.FindByID(context.Background(), tenantID, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, refund.ID, found.ID)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := setupTxManagerTestDB(t)
		manager := NewGormTxManager(db)
		repo := NewGormRefundRepository(db)
		tenantID := uuid.New()
		refund := newTestRefund(t, tenantID)

		err := manager.WithinTx(context.Background(), func(ctx context.Context) error {
			if err := repo.Save(ctx, refund); err != nil {
				return err
			}
			return errors.New("boom")
		})
		require.Error(t, err)

		_, err = repo.FindByID(context.Background(), tenantID, refund.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		db := setupTxManagerTestDB(t)
		manager := NewGormTxManager(db)
		repo := NewGormRefundRepository(db)
		tenantID := uuid.New()
		inner := newTestRefund(t, tenantID)

		err := manager.WithinTx(context.Background(), func(ctx context.Context) error {
			if err := manager.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Save(ctx, inner)
			}); err != nil {
				return err
			}
			// the outer failure must undo the inner save
			return errors.New("outer failure")
		})
		require.Error(t, err)

		_, err = repo.FindByID(context.Background(), tenantID, inner.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
