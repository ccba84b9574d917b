package persistence

import (
	"context"
	"testing"
	"time"

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

func setupTransactionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.TransactionModel{}, &models.EntryModel{})
	require.NoError(t, err)

	return db
}

func mustPostTransaction(t *testing.T, repo *GormTransactionRepository, tenantID, ledgerID, debitAccount, creditAccount uuid.UUID, amountMinor int64, at time.Time) *ledger.Transaction {
	t.Helper()
	amount := valueobject.MustNewMoney(amountMinor, valueobject.USD)
	txn, err := ledger.NewTransaction(tenantID, ledgerID, "order", uuid.New(), "sale", at, []ledger.EntryInput{
		{AccountID: debitAccount, Direction: ledger.EntryDirectionDebit, Amount: amount},
		{AccountID: creditAccount, Direction: ledger.EntryDirectionCredit, Amount: amount},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), txn))
	return txn
}

func TestGormTransactionRepository_SaveAndFind(t *testing.T) {
	db := setupTransactionTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	ledgerID := uuid.New()
	cashAccount := uuid.New()
	revenueAccount := uuid.New()

	txn := mustPostTransaction(t, repo, tenantID, ledgerID, cashAccount, revenueAccount, 5000, time.Now())

	t.Run("loads header with entries", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, txn.ID)
		require.NoError(t, err)
		require.Len(t, found.Entries, 2)
		assert.Equal(t, int64(5000), found.DebitTotal())
		assert.Equal(t, int64(5000), found.CreditTotal())
		assert.True(t, found.IsBalanced())
		assert.Equal(t, valueobject.USD, found.Currency)
	})

	t.Run("finds by reference", func(t *testing.T) {
		found, err := repo.FindByReference(ctx, tenantID, txn.ReferenceType, txn.ReferenceID)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, txn.ID, found[0].ID)
	})

	t.Run("does not leak across tenants", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), txn.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormTransactionRepository_FindByLedger(t *testing.T) {
	db := setupTransactionTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	ledgerID := uuid.New()
	cashAccount := uuid.New()
	revenueAccount := uuid.New()

	first := time.Now().Add(-time.Hour)
	second := time.Now()
	mustPostTransaction(t, repo, tenantID, ledgerID, cashAccount, revenueAccount, 1000, first)
	mustPostTransaction(t, repo, tenantID, ledgerID, cashAccount, revenueAccount, 2000, second)

	found, err := repo.FindByLedger(ctx, tenantID, ledgerID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(1000), found[0].DebitTotal())
	assert.Equal(t, int64(2000), found[1].DebitTotal())
}

func TestGormTransactionRepository_EntriesForAccount(t *testing.T) {
	db := setupTransactionTestDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	ledgerID := uuid.New()
	cashAccount := uuid.New()
	revenueAccount := uuid.New()

	earlier := time.Now().Add(-2 * time.Hour)
	later := time.Now()
	mustPostTransaction(t, repo, tenantID, ledgerID, cashAccount, revenueAccount, 1000, earlier)
	mustPostTransaction(t, repo, tenantID, ledgerID, cashAccount, revenueAccount, 3000, later)

	t.Run("returns all entries for the account", func(t *testing.T) {
		entries, err := repo.EntriesForAccount(ctx, tenantID, cashAccount, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(1000), entries[0].AmountMinor)
		assert.Equal(t, int64(3000), entries[1].AmountMinor)
		for _, e := range entries {
			assert.Equal(t, cashAccount, e.AccountID)
			assert.Equal(t, ledger.EntryDirectionDebit, e.Direction)
		}
	})

	t.Run("as-of bound excludes later entries", func(t *testing.T) {
		asOf := time.Now().Add(-time.Hour)
		entries, err := repo.EntriesForAccount(ctx, tenantID, cashAccount, &asOf)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(1000), entries[0].AmountMinor)
	})

	t.Run("other accounts are not included", func(t *testing.T) {
		entries, err := repo.EntriesForAccount(ctx, tenantID, revenueAccount, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, ledger.EntryDirectionCredit, e.Direction)
		}
	})
}
