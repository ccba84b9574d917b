package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/fincore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.InvoiceModel{})
	require.NoError(t, err)

	return db
}

func mustNewIssuedInvoice(t *testing.T, tenantID uuid.UUID, number string) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice(tenantID, uuid.New(), uuid.New(), number, valueobject.USD)
	require.NoError(t, err)
	require.NoError(t, inv.AddLine("Consulting", decimal.NewFromInt(1), 10000))
	require.NoError(t, inv.Issue())
	return inv
}

func TestGormInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	inv := mustNewIssuedInvoice(t, tenantID, "INV-20250101-00001")
	require.NoError(t, inv.ApplyPayment(uuid.New(), valueobject.MustNewMoney(4000, valueobject.USD)))
	_, err := inv.CreateCreditNote(valueobject.MustNewMoney(1000, valueobject.USD), "price adjustment")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))

	t.Run("round trips lines, payments and credit notes", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)

		assert.Equal(t, invoice.InvoiceStatusPartiallyPaid, found.Status)
		assert.Equal(t, int64(10000), found.TotalMinor)
		assert.Equal(t, int64(4000), found.PaidMinor)
		assert.Equal(t, int64(1000), found.CreditedMinor)

		require.Len(t, found.Lines, 1)
		assert.Equal(t, "Consulting", found.Lines[0].Description)
		require.Len(t, found.Payments, 1)
		assert.Equal(t, int64(4000), found.Payments[0].AmountMinor)
		require.Len(t, found.CreditNotes, 1)
		assert.Equal(t, "price adjustment", found.CreditNotes[0].Reason)
	})

	t.Run("finds by invoice number", func(t *testing.T) {
		found, err := repo.FindByInvoiceNumber(ctx, tenantID, inv.InvoiceNumber)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)
	})

	t.Run("finds by order", func(t *testing.T) {
		found, err := repo.FindByOrder(ctx, tenantID, inv.OrderID)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)
	})

	t.Run("finds by status", func(t *testing.T) {
		found, err := repo.FindByStatus(ctx, tenantID, invoice.InvoiceStatusPartiallyPaid)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, inv.ID, found[0].ID)
	})

	t.Run("does not leak across tenants", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()

	t.Run("advances the version on success", func(t *testing.T) {
		inv := mustNewIssuedInvoice(t, tenantID, "INV-20250101-00002")
		require.NoError(t, repo.Save(ctx, inv))

		expected := inv.Version
		require.NoError(t, inv.ApplyPayment(uuid.New(), valueobject.MustNewMoney(10000, valueobject.USD)))
		require.NoError(t, repo.SaveWithLock(ctx, inv, expected))

		found, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.InvoiceStatusPaid, found.Status)
		assert.Equal(t, expected+1, found.Version)
	})

	t.Run("stale version returns concurrency conflict", func(t *testing.T) {
		inv := mustNewIssuedInvoice(t, tenantID, "INV-20250101-00003")
		require.NoError(t, repo.Save(ctx, inv))

		require.NoError(t, inv.ApplyPayment(uuid.New(), valueobject.MustNewMoney(10000, valueobject.USD)))
		err := repo.SaveWithLock(ctx, inv, inv.Version-1)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormInvoiceRepository_NextInvoiceNumber(t *testing.T) {
	db := setupInvoiceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	prefix := fmt.Sprintf("INV-%s-", time.Now().Format("20060102"))

	t.Run("starts at one", func(t *testing.T) {
		number, err := repo.NextInvoiceNumber(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, prefix+"00001", number)
	})

	t.Run("increments past existing numbers", func(t *testing.T) {
		inv := mustNewIssuedInvoice(t, tenantID, prefix+"00001")
		require.NoError(t, repo.Save(ctx, inv))

		number, err := repo.NextInvoiceNumber(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, prefix+"00002", number)
	})

	t.Run("sequences are tenant scoped", func(t *testing.T) {
		number, err := repo.NextInvoiceNumber(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, prefix+"00001", number)
	})
}
