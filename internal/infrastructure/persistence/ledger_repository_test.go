package persistence

import (
	"context"
	"testing"

	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.LedgerModel{}, &models.AccountModel{})
	require.NoError(t, err)

	return db
}

func mustNewLedger(t *testing.T, tenantID uuid.UUID) *ledger.Ledger {
	t.Helper()
	l, err := ledger.NewLedger(tenantID, "General Ledger", valueobject.USD)
	require.NoError(t, err)
	return l
}

func TestGormLedgerRepository_SaveAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	l := mustNewLedger(t, tenantID)
	require.NoError(t, repo.Save(ctx, l))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l.ID, found.ID)
		assert.Equal(t, "General Ledger", found.Name)
		assert.Equal(t, valueobject.USD, found.Currency)
	})

	t.Run("finds by tenant", func(t *testing.T) {
		found, err := repo.FindByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, l.ID, found.ID)
	})

	t.Run("does not leak across tenants", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), l.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns not found for unknown tenant", func(t *testing.T) {
		_, err := repo.FindByTenant(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormLedgerRepository_ListTenants(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormLedgerRepository(db)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()
	require.NoError(t, repo.Save(ctx, mustNewLedger(t, tenantA)))
	require.NoError(t, repo.Save(ctx, mustNewLedger(t, tenantB)))

	tenants, err := repo.ListTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
	assert.Contains(t, tenants, tenantA)
	assert.Contains(t, tenants, tenantB)
}

func TestGormAccountRepository(t *testing.T) {
	db := setupLedgerTestDB(t)
	ledgerRepo := NewGormLedgerRepository(db)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	l := mustNewLedger(t, tenantID)
	require.NoError(t, ledgerRepo.Save(ctx, l))

	cash, err := ledger.NewAccount(tenantID, l.ID, ledger.AccountCodeCash, "Cash", ledger.AccountTypeCash)
	require.NoError(t, err)
	revenue, err := ledger.NewAccount(tenantID, l.ID, ledger.AccountCodeRevenue, "Revenue", ledger.AccountTypeRevenue)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cash))
	require.NoError(t, repo.Save(ctx, revenue))

	t.Run("finds by code", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, tenantID, l.ID, ledger.AccountCodeCash)
		require.NoError(t, err)
		assert.Equal(t, cash.ID, found.ID)
		assert.Equal(t, ledger.AccountTypeCash, found.Type)
		assert.True(t, found.Active)
	})

	t.Run("lists accounts ordered by code", func(t *testing.T) {
		accounts, err := repo.FindByLedger(ctx, tenantID, l.ID)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, ledger.AccountCodeCash, accounts[0].Code)
		assert.Equal(t, ledger.AccountCodeRevenue, accounts[1].Code)
	})

	t.Run("unknown code returns not found", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, tenantID, l.ID, "9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("persists deactivation", func(t *testing.T) {
		cash.Deactivate()
		require.NoError(t, repo.Save(ctx, cash))

		found, err := repo.FindByID(ctx, tenantID, cash.ID)
		require.NoError(t, err)
		assert.False(t, found.Active)
	})
}
