package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/fincore/backend/internal/application/apptest"
	appreconciliation "github.com/fincore/backend/internal/application/reconciliation"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSweepFixture(t *testing.T) (*appreconciliation.Service, *apptest.ReportRepo, uuid.UUID) {
	t.Helper()

	ledgers := apptest.NewLedgerRepo()
	accounts := apptest.NewAccountRepo()
	reports := apptest.NewReportRepo()

	tenantID := uuid.New()
	l, err := ledger.NewLedger(tenantID, "General Ledger", valueobject.USD)
	require.NoError(t, err)
	require.NoError(t, ledgers.Save(context.Background(), l))

	cash, err := ledger.NewAccount(tenantID, l.ID, ledger.AccountCodeCash, "Cash", ledger.AccountTypeCash)
	require.NoError(t, err)
	tax, err := ledger.NewAccount(tenantID, l.ID, ledger.AccountCodeTaxPayable, "Tax Payable", ledger.AccountTypeTaxPayable)
	require.NoError(t, err)
	require.NoError(t, accounts.Save(context.Background(), cash))
	require.NoError(t, accounts.Save(context.Background(), tax))

	service := appreconciliation.NewService(
		ledgers,
		accounts,
		apptest.NewTransactionRepo(),
		apptest.NewOrderRepo(),
		apptest.NewInvoiceRepo(),
		reports,
		zap.NewNop(),
	)
	return service, reports, tenantID
}

func TestReconciliationScheduler_RunsSweeps(t *testing.T) {
	service, reports, tenantID := newSweepFixture(t)

	scheduler := NewReconciliationScheduler(service, zap.NewNop(), ReconciliationSchedulerConfig{
		Enabled:       true,
		SweepInterval: 10 * time.Millisecond,
		SweepTimeout:  time.Second,
		InitialDelay:  time.Millisecond,
		AlertOnDrift:  true,
	})

	require.NoError(t, scheduler.Start(context.Background()))

	// the initial sweep plus at least one ticker sweep should land
	require.Eventually(t, func() bool {
		found, err := reports.FindSince(context.Background(), tenantID, time.Now().Add(-time.Minute))
		return err == nil && len(found) >= 2
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))
}

func TestReconciliationScheduler_Disabled(t *testing.T) {
	service, reports, tenantID := newSweepFixture(t)

	scheduler := NewReconciliationScheduler(service, zap.NewNop(), ReconciliationSchedulerConfig{
		Enabled:       false,
		SweepInterval: time.Millisecond,
		SweepTimeout:  time.Second,
	})

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)

	found, err := reports.FindSince(context.Background(), tenantID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, scheduler.Stop(context.Background()))
}

func TestReconciliationScheduler_StartIsIdempotent(t *testing.T) {
	service, _, _ := newSweepFixture(t)

	scheduler := NewReconciliationScheduler(service, zap.NewNop(), DefaultReconciliationSchedulerConfig())

	require.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))
	require.NoError(t, scheduler.Stop(stopCtx))
}