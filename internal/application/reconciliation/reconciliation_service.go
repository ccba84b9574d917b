package reconciliation

import (
	"context"
	"fmt"

	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/reconciliation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service sweeps a tenant's financial state and reports drift between the
// ledger and the aggregates that feed it. It never corrects anything; a
// drift is evidence of a bug or an out-of-band change, and the fix is a
// deliberate offsetting posting, not an automated write.
type Service struct {
	ledgers      ledger.LedgerRepository
	accounts     ledger.AccountRepository
	transactions ledger.TransactionRepository
	orders       order.FinancialOrderRepository
	invoices     invoice.InvoiceRepository
	reports      reconciliation.ReportRepository
	logger       *zap.Logger
}

// NewService creates a new reconciliation service
func NewService(
	ledgers ledger.LedgerRepository,
	accounts ledger.AccountRepository,
	transactions ledger.TransactionRepository,
	orders order.FinancialOrderRepository,
	invoices invoice.InvoiceRepository,
	reports reconciliation.ReportRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		ledgers:      ledgers,
		accounts:     accounts,
		transactions: transactions,
		orders:       orders,
		invoices:     invoices,
		reports:      reports,
		logger:       logger,
	}
}

// ReconcileAll sweeps every tenant that owns a ledger. A failed tenant
// sweep is logged and skipped; one tenant's trouble never blocks the rest.
func (s *Service) ReconcileAll(ctx context.Context) ([]*reconciliation.Report, error) {
	tenantIDs, err := s.ledgers.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*reconciliation.Report, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		report, err := s.ReconcileTenant(ctx, tenantID)
		if err != nil {
			s.logger.Error("tenant reconciliation failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// LatestReport returns the most recent sweep report for a tenant
func (s *Service) LatestReport(ctx context.Context, tenantID uuid.UUID) (*reconciliation.Report, error) {
	return s.reports.FindLatest(ctx, tenantID)
}

// ReconcileTenant runs one full sweep for a tenant and persists the report
func (s *Service) ReconcileTenant(ctx context.Context, tenantID uuid.UUID) (*reconciliation.Report, error) {
	report := reconciliation.NewReport(tenantID)

	l, err := s.ledgers.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransactions(ctx, tenantID, l, report); err != nil {
		return nil, err
	}
	expectedCash, expectedTax, err := s.checkOrders(ctx, tenantID, report)
	if err != nil {
		return nil, err
	}
	standaloneCash, err := s.checkInvoices(ctx, tenantID, report)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccountDrift(ctx, tenantID, l, ledger.AccountCodeCash,
		reconciliation.CheckCashDrift, expectedCash+standaloneCash, report); err != nil {
		return nil, err
	}
	if err := s.checkAccountDrift(ctx, tenantID, l, ledger.AccountCodeTaxPayable,
		reconciliation.CheckTaxDrift, expectedTax, report); err != nil {
		return nil, err
	}

	if err := s.reports.Save(ctx, report); err != nil {
		return nil, err
	}

	if report.Clean() {
		s.logger.Info("reconciliation sweep clean",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("transactions_seen", report.TransactionsSeen))
	} else {
		s.logger.Warn("reconciliation sweep found drift",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("findings", len(report.Findings)),
			zap.Bool("critical", report.HasCritical()))
	}
	return report, nil
}

// checkTransactions verifies the balance invariant over every committed
// transaction. An unbalanced row in storage means the write path was
// bypassed and is always critical.
func (s *Service) checkTransactions(ctx context.Context, tenantID uuid.UUID, l *ledger.Ledger, report *reconciliation.Report) error {
	txns, err := s.transactions.FindByLedger(ctx, tenantID, l.ID)
	if err != nil {
		return err
	}
	report.TransactionsSeen = len(txns)
	for _, txn := range txns {
		if !txn.IsBalanced() {
			report.AddFinding(reconciliation.Finding{
				Code:          reconciliation.CheckUnbalancedTransaction,
				Severity:      reconciliation.SeverityCritical,
				AggregateType: "LedgerTransaction",
				AggregateID:   txn.ID,
				ExpectedMinor: txn.DebitTotal(),
				ActualMinor:   txn.CreditTotal(),
				Detail:        "transaction debits do not equal credits",
			})
		}
	}
	return nil
}

// checkOrders verifies per-order refund bookkeeping and accumulates the
// cash and tax the ledger should be carrying for order activity
func (s *Service) checkOrders(ctx context.Context, tenantID uuid.UUID, report *reconciliation.Report) (expectedCash, expectedTax int64, err error) {
	for _, status := range []order.OrderStatus{order.OrderStatusPaid, order.OrderStatusRefunded} {
		orders, err := s.orders.FindByStatus(ctx, tenantID, status)
		if err != nil {
			return 0, 0, err
		}
		for _, o := range orders {
			report.OrdersChecked++

			if o.RefundedMinor > o.TotalMinor {
				report.AddFinding(reconciliation.Finding{
					Code:          reconciliation.CheckOrderRefundOverrun,
					Severity:      reconciliation.SeverityCritical,
					AggregateType: "FinancialOrder",
					AggregateID:   o.ID,
					ExpectedMinor: o.TotalMinor,
					ActualMinor:   o.RefundedMinor,
					Detail:        fmt.Sprintf("order %s refunded beyond its captured total", o.OrderNumber),
				})
			}
			fullyRefunded := o.RefundedMinor == o.TotalMinor
			if fullyRefunded != (o.Status == order.OrderStatusRefunded) {
				report.AddFinding(reconciliation.Finding{
					Code:          reconciliation.CheckOrderStatusMismatch,
					Severity:      reconciliation.SeverityWarning,
					AggregateType: "FinancialOrder",
					AggregateID:   o.ID,
					ExpectedMinor: o.TotalMinor,
					ActualMinor:   o.RefundedMinor,
					Detail:        fmt.Sprintf("order %s status %s does not match its refund running sum", o.OrderNumber, o.Status),
				})
			}

			expectedCash += o.TotalMinor - o.RefundedMinor
			if o.Snapshot != nil && o.TotalMinor > 0 {
				// refunded tax tracks the refunded share of the captured tax
				refundedTax := o.Snapshot.TaxTotalMinor * o.RefundedMinor / o.TotalMinor
				expectedTax += o.Snapshot.TaxTotalMinor - refundedTax
			}
		}
	}
	return expectedCash, expectedTax, nil
}

// checkInvoices verifies the invoice balance law and accumulates cash from
// standalone invoice settlements
func (s *Service) checkInvoices(ctx context.Context, tenantID uuid.UUID, report *reconciliation.Report) (standaloneCash int64, err error) {
	for _, status := range []invoice.InvoiceStatus{invoice.InvoiceStatusIssued, invoice.InvoiceStatusPartiallyPaid, invoice.InvoiceStatusPaid} {
		invoices, err := s.invoices.FindByStatus(ctx, tenantID, status)
		if err != nil {
			return 0, err
		}
		for _, inv := range invoices {
			report.InvoicesChecked++

			due := inv.TotalMinor - inv.PaidMinor - inv.CreditedMinor + inv.OverpaidMinor
			if due < 0 {
				report.AddFinding(reconciliation.Finding{
					Code:          reconciliation.CheckInvoiceBalanceLaw,
					Severity:      reconciliation.SeverityCritical,
					AggregateType: "Invoice",
					AggregateID:   inv.ID,
					ExpectedMinor: 0,
					ActualMinor:   due,
					Detail:        fmt.Sprintf("invoice %s carries more payments and credits than its total", inv.InvoiceNumber),
				})
			}
			if inv.Status == invoice.InvoiceStatusPaid && inv.BalanceDueMinor() != 0 {
				report.AddFinding(reconciliation.Finding{
					Code:          reconciliation.CheckInvoiceStatusMismatch,
					Severity:      reconciliation.SeverityWarning,
					AggregateType: "Invoice",
					AggregateID:   inv.ID,
					ExpectedMinor: 0,
					ActualMinor:   inv.BalanceDueMinor(),
					Detail:        fmt.Sprintf("invoice %s is marked paid with a balance outstanding", inv.InvoiceNumber),
				})
			}

			if inv.OrderID == uuid.Nil {
				standaloneCash += inv.PaidMinor
			}
		}
	}
	return standaloneCash, nil
}

// checkAccountDrift compares the derived ledger balance of one account
// against the amount the aggregates say it should carry
func (s *Service) checkAccountDrift(ctx context.Context, tenantID uuid.UUID, l *ledger.Ledger, code, checkCode string, expectedMinor int64, report *reconciliation.Report) error {
	account, err := s.accounts.FindByCode(ctx, tenantID, l.ID, code)
	if err != nil {
		return err
	}
	entries, err := s.transactions.EntriesForAccount(ctx, tenantID, account.ID, nil)
	if err != nil {
		return err
	}
	balance := account.BalanceFromEntries(entries, l.Currency, nil)

	if balance.AmountMinor() != expectedMinor {
		report.AddFinding(reconciliation.Finding{
			Code:          checkCode,
			Severity:      reconciliation.SeverityCritical,
			AggregateType: "Account",
			AggregateID:   account.ID,
			ExpectedMinor: expectedMinor,
			ActualMinor:   balance.AmountMinor(),
			Detail:        fmt.Sprintf("account %s balance %s drifts from aggregate expectation", code, balance.String()),
		})
	}
	return nil
}
