package invoice

import (
	"context"
	"time"

	ledgerapp "github.com/fincore/backend/internal/application/ledger"
	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReferenceTypeInvoice tags ledger transactions produced by invoice
// operations
const ReferenceTypeInvoice = "INVOICE"

// LedgerPoster is the slice of the ledger service the invoice engine needs
type LedgerPoster interface {
	Post(ctx context.Context, cmd ledgerapp.PostCommand) (*ledger.Transaction, error)
}

// Service orchestrates invoice lifecycle and bookkeeping. Standalone
// invoices carry their own receivable postings; invoices generated for a
// paid order mirror financials the order lifecycle already recorded, so
// they never post a second time.
type Service struct {
	invoices   invoice.InvoiceRepository
	ledgers    ledger.LedgerRepository
	poster     LedgerPoster
	outbox     shared.OutboxEventSaver
	tx         shared.TxManager
	voidPolicy invoice.VoidPolicy
	logger     *zap.Logger
}

// NewService creates a new invoice service
func NewService(
	invoices invoice.InvoiceRepository,
	ledgers ledger.LedgerRepository,
	poster LedgerPoster,
	outbox shared.OutboxEventSaver,
	tx shared.TxManager,
	voidPolicy invoice.VoidPolicy,
	logger *zap.Logger,
) *Service {
	if voidPolicy == "" {
		voidPolicy = invoice.VoidPolicyStrict
	}
	return &Service{
		invoices:   invoices,
		ledgers:    ledgers,
		poster:     poster,
		outbox:     outbox,
		tx:         tx,
		voidPolicy: voidPolicy,
		logger:     logger,
	}
}

// LineCommand is one billed line for a new invoice
type LineCommand struct {
	Description    string
	Quantity       decimal.Decimal
	UnitPriceMinor int64
}

// CreateDraftCommand describes a standalone draft invoice
type CreateDraftCommand struct {
	TenantID     uuid.UUID
	CustomerID   uuid.UUID
	Currency     valueobject.Currency
	Lines        []LineCommand
	AllowOverpay bool
}

// CreateDraft creates a standalone draft invoice
func (s *Service) CreateDraft(ctx context.Context, cmd CreateDraftCommand) (*invoice.Invoice, error) {
	number, err := s.invoices.NextInvoiceNumber(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	inv, err := invoice.NewInvoice(cmd.TenantID, uuid.Nil, cmd.CustomerID, number, cmd.Currency)
	if err != nil {
		return nil, err
	}
	inv.AllowOverpay = cmd.AllowOverpay
	for _, line := range cmd.Lines {
		if err := inv.AddLine(line.Description, line.Quantity, line.UnitPriceMinor); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invoices.Save(ctx, inv); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, inv.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	inv.ClearDomainEvents()
	return inv, nil
}

// Issue freezes the invoice lines. Standalone invoices post the receivable
// to the ledger: debit accounts receivable, credit revenue.
func (s *Service) Issue(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		expected := inv.GetVersion()
		if err := inv.Issue(); err != nil {
			return err
		}
		if inv.OrderID == uuid.Nil {
			if err := s.post(ctx, inv, "invoice issued "+inv.InvoiceNumber, []ledgerapp.EntryCommand{
				{AccountCode: ledger.AccountCodeAccountsReceivable, Direction: ledger.EntryDirectionDebit, AmountMinor: inv.TotalMinor, Memo: inv.InvoiceNumber},
				{AccountCode: ledger.AccountCodeRevenue, Direction: ledger.EntryDirectionCredit, AmountMinor: inv.TotalMinor, Memo: "invoiced revenue"},
			}); err != nil {
				return err
			}
		}
		if err := s.invoices.SaveWithLock(ctx, inv, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, inv.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	inv.ClearDomainEvents()

	s.logger.Info("invoice issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int64("total_minor", inv.TotalMinor))
	return inv, nil
}

// ApplyPayment records a payment against an issued invoice. Standalone
// invoices post the settlement: debit cash, credit accounts receivable.
func (s *Service) ApplyPayment(ctx context.Context, tenantID, invoiceID, paymentID uuid.UUID, amountMinor int64) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		expected := inv.GetVersion()
		amount, err := valueobject.NewMoney(amountMinor, inv.Currency)
		if err != nil {
			return err
		}
		if err := inv.ApplyPayment(paymentID, amount); err != nil {
			return err
		}
		if inv.OrderID == uuid.Nil {
			if err := s.post(ctx, inv, "payment on invoice "+inv.InvoiceNumber, []ledgerapp.EntryCommand{
				{AccountCode: ledger.AccountCodeCash, Direction: ledger.EntryDirectionDebit, AmountMinor: amountMinor, Memo: inv.InvoiceNumber},
				{AccountCode: ledger.AccountCodeAccountsReceivable, Direction: ledger.EntryDirectionCredit, AmountMinor: amountMinor, Memo: "invoice settlement"},
			}); err != nil {
				return err
			}
		}
		if err := s.invoices.SaveWithLock(ctx, inv, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, inv.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	inv.ClearDomainEvents()

	s.logger.Info("invoice payment applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int64("amount_minor", amountMinor),
		zap.Int64("balance_due_minor", inv.BalanceDueMinor()))
	return inv, nil
}

// CreateCreditNote reduces the balance due. Standalone invoices post the
// adjustment: debit revenue, credit accounts receivable.
func (s *Service) CreateCreditNote(ctx context.Context, tenantID, invoiceID uuid.UUID, amountMinor int64, reason string) (*invoice.CreditNote, error) {
	var note *invoice.CreditNote
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		expected := inv.GetVersion()
		amount, err := valueobject.NewMoney(amountMinor, inv.Currency)
		if err != nil {
			return err
		}
		note, err = inv.CreateCreditNote(amount, reason)
		if err != nil {
			return err
		}
		if inv.OrderID == uuid.Nil {
			if err := s.post(ctx, inv, "credit note "+note.Number, []ledgerapp.EntryCommand{
				{AccountCode: ledger.AccountCodeRevenue, Direction: ledger.EntryDirectionDebit, AmountMinor: amountMinor, Memo: note.Number},
				{AccountCode: ledger.AccountCodeAccountsReceivable, Direction: ledger.EntryDirectionCredit, AmountMinor: amountMinor, Memo: "credit applied"},
			}); err != nil {
				return err
			}
		}
		if err := s.invoices.SaveWithLock(ctx, inv, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, inv.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Void cancels an invoice under the configured void policy. Standalone
// invoices reverse the receivable still outstanding: debit revenue, credit
// accounts receivable for the balance due at void time.
func (s *Service) Void(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invoices.FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		expected := inv.GetVersion()
		if err := inv.Void(s.voidPolicy); err != nil {
			return err
		}
		if due := inv.BalanceDueMinor(); inv.OrderID == uuid.Nil && due > 0 {
			if err := s.post(ctx, inv, "void invoice "+inv.InvoiceNumber, []ledgerapp.EntryCommand{
				{AccountCode: ledger.AccountCodeRevenue, Direction: ledger.EntryDirectionDebit, AmountMinor: due, Memo: inv.InvoiceNumber},
				{AccountCode: ledger.AccountCodeAccountsReceivable, Direction: ledger.EntryDirectionCredit, AmountMinor: due, Memo: "invoice voided"},
			}); err != nil {
				return err
			}
		}
		if err := s.invoices.SaveWithLock(ctx, inv, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, inv.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	inv.ClearDomainEvents()
	return inv, nil
}

// FindByID returns an invoice scoped to its tenant
func (s *Service) FindByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoice.Invoice, error) {
	return s.invoices.FindByID(ctx, tenantID, invoiceID)
}

func (s *Service) post(ctx context.Context, inv *invoice.Invoice, description string, entries []ledgerapp.EntryCommand) error {
	l, err := s.ledgers.FindByTenant(ctx, inv.TenantID)
	if err != nil {
		return err
	}
	_, err = s.poster.Post(ctx, ledgerapp.PostCommand{
		TenantID:      inv.TenantID,
		LedgerID:      l.ID,
		ReferenceType: ReferenceTypeInvoice,
		ReferenceID:   inv.ID,
		Description:   description,
		TransactionAt: time.Now(),
		Currency:      inv.Currency,
		Entries:       entries,
	})
	return err
}
