package order

import (
	"context"
	"time"

	ledgerapp "github.com/fincore/backend/internal/application/ledger"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReferenceTypeOrder tags ledger transactions produced by order lifecycle
// transitions
const ReferenceTypeOrder = "FINANCIAL_ORDER"

// LedgerPoster is the slice of the ledger service the order engine needs
type LedgerPoster interface {
	Post(ctx context.Context, cmd ledgerapp.PostCommand) (*ledger.Transaction, error)
}

// Service orchestrates the financial order lifecycle. Every transition
// that moves money records it in the tenant ledger within the same
// storage transaction as the state change.
type Service struct {
	orders  order.FinancialOrderRepository
	refunds order.RefundRepository
	ledgers ledger.LedgerRepository
	poster  LedgerPoster
	outbox  shared.OutboxEventSaver
	tx      shared.TxManager
	logger  *zap.Logger
}

// NewService creates a new order service
func NewService(
	orders order.FinancialOrderRepository,
	refunds order.RefundRepository,
	ledgers ledger.LedgerRepository,
	poster LedgerPoster,
	outbox shared.OutboxEventSaver,
	tx shared.TxManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:  orders,
		refunds: refunds,
		ledgers: ledgers,
		poster:  poster,
		outbox:  outbox,
		tx:      tx,
		logger:  logger,
	}
}

// CreateDraftCommand describes a new draft order
type CreateDraftCommand struct {
	TenantID    uuid.UUID
	CustomerID  uuid.UUID
	OrderNumber string
	Currency    valueobject.Currency
	TaxRates    []order.TaxRate
}

// CreateDraft creates a draft order ready for items
func (s *Service) CreateDraft(ctx context.Context, cmd CreateDraftCommand) (*order.FinancialOrder, error) {
	o, err := order.NewFinancialOrder(cmd.TenantID, cmd.CustomerID, cmd.OrderNumber, cmd.Currency)
	if err != nil {
		return nil, err
	}
	if len(cmd.TaxRates) > 0 {
		if err := o.SetTaxRates(cmd.TaxRates); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, o.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	o.ClearDomainEvents()
	return o, nil
}

// AddItem adds a priced line to a draft order
func (s *Service) AddItem(ctx context.Context, tenantID, orderID, productID uuid.UUID, description string, quantity decimal.Decimal, unitPriceMinor int64) (*order.FinancialOrder, error) {
	var o *order.FinancialOrder
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		expected := o.GetVersion()
		if err := o.AddItem(productID, description, quantity, unitPriceMinor); err != nil {
			return err
		}
		return s.orders.SaveWithLock(ctx, o, expected)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// RemoveItem removes a line from a draft order
func (s *Service) RemoveItem(ctx context.Context, tenantID, orderID, itemID uuid.UUID) (*order.FinancialOrder, error) {
	return s.mutateDraft(ctx, tenantID, orderID, func(o *order.FinancialOrder) error {
		return o.RemoveItem(itemID)
	})
}

// UpdateItemPrice reprices a line on a draft order
func (s *Service) UpdateItemPrice(ctx context.Context, tenantID, orderID, itemID uuid.UUID, unitPriceMinor int64) (*order.FinancialOrder, error) {
	return s.mutateDraft(ctx, tenantID, orderID, func(o *order.FinancialOrder) error {
		return o.UpdateItemPrice(itemID, unitPriceMinor)
	})
}

// SetTaxRates replaces the tax rates applied to a draft order
func (s *Service) SetTaxRates(ctx context.Context, tenantID, orderID uuid.UUID, rates []order.TaxRate) (*order.FinancialOrder, error) {
	return s.mutateDraft(ctx, tenantID, orderID, func(o *order.FinancialOrder) error {
		return o.SetTaxRates(rates)
	})
}

// ApplyDiscount sets the order-level discount on a draft order
func (s *Service) ApplyDiscount(ctx context.Context, tenantID, orderID uuid.UUID, discountMinor int64) (*order.FinancialOrder, error) {
	return s.mutateDraft(ctx, tenantID, orderID, func(o *order.FinancialOrder) error {
		return o.ApplyDiscount(discountMinor)
	})
}

// mutateDraft loads the order, applies a draft-only mutation and saves it
// under the optimistic lock
func (s *Service) mutateDraft(ctx context.Context, tenantID, orderID uuid.UUID, mutate func(*order.FinancialOrder) error) (*order.FinancialOrder, error) {
	var o *order.FinancialOrder
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		expected := o.GetVersion()
		if err := mutate(o); err != nil {
			return err
		}
		return s.orders.SaveWithLock(ctx, o, expected)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Lock freezes the order financials and moves it to PENDING. The captured
// snapshot is what all later money movement refers to.
func (s *Service) Lock(ctx context.Context, tenantID, orderID uuid.UUID) (*order.FinancialOrder, error) {
	var o *order.FinancialOrder
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		expected := o.GetVersion()
		if err := o.Lock(); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, o, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, o.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	o.ClearDomainEvents()

	s.logger.Info("order locked",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int64("total_minor", o.TotalMinor))
	return o, nil
}

// MarkPaid records payment capture for a pending order and posts the sale
// to the ledger: debit cash for the captured total, credit revenue for the
// net amount and tax payable for the collected tax. The state change and
// the posting commit together.
func (s *Service) MarkPaid(ctx context.Context, tenantID, orderID uuid.UUID, providerRef string) (*order.FinancialOrder, error) {
	var o *order.FinancialOrder
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		expected := o.GetVersion()
		if err := o.MarkPaid(providerRef); err != nil {
			return err
		}

		l, err := s.ledgers.FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		if _, err := s.poster.Post(ctx, s.salePosting(o, l.ID)); err != nil {
			return err
		}

		if err := s.orders.SaveWithLock(ctx, o, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, o.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	o.ClearDomainEvents()

	s.logger.Info("order paid",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("provider_ref", providerRef),
		zap.Int64("total_minor", o.TotalMinor))
	return o, nil
}

// Fail moves a pending order to FAILED without touching the ledger
func (s *Service) Fail(ctx context.Context, tenantID, orderID uuid.UUID, reason string) (*order.FinancialOrder, error) {
	var o *order.FinancialOrder
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		expected := o.GetVersion()
		if err := o.Fail(reason); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, o, expected); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, o.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	o.ClearDomainEvents()
	return o, nil
}

// Refund applies a partial or full refund to a paid order and posts the
// reversal to the ledger. The refunded amount is split between revenue and
// tax payable in proportion to the captured totals, with any rounding
// remainder absorbed by the revenue line so the posting always balances.
func (s *Service) Refund(ctx context.Context, tenantID, orderID uuid.UUID, amountMinor int64, reason string) (*order.Refund, error) {
	var refund *order.Refund
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		expected := o.GetVersion()

		amount, err := valueobject.NewMoney(amountMinor, o.Currency)
		if err != nil {
			return err
		}
		if err := o.ApplyRefund(amount, reason); err != nil {
			return err
		}

		refund, err = order.NewRefund(tenantID, orderID, amount, reason)
		if err != nil {
			return err
		}
		if err := refund.Complete(o.ProviderRef); err != nil {
			return err
		}

		l, err := s.ledgers.FindByTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		posting, err := s.refundPosting(o, l.ID, amount)
		if err != nil {
			return err
		}
		if _, err := s.poster.Post(ctx, posting); err != nil {
			return err
		}

		if err := s.orders.SaveWithLock(ctx, o, expected); err != nil {
			return err
		}
		if err := s.refunds.Save(ctx, refund); err != nil {
			return err
		}
		return s.outbox.SaveEvents(ctx, o.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order refund recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int64("amount_minor", amountMinor))
	return refund, nil
}

// FindByID returns an order scoped to its tenant
func (s *Service) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*order.FinancialOrder, error) {
	return s.orders.FindByID(ctx, tenantID, orderID)
}

func (s *Service) salePosting(o *order.FinancialOrder, ledgerID uuid.UUID) ledgerapp.PostCommand {
	snapshot := o.Snapshot
	entries := []ledgerapp.EntryCommand{
		{AccountCode: ledger.AccountCodeCash, Direction: ledger.EntryDirectionDebit, AmountMinor: snapshot.TotalMinor, Memo: "order " + o.OrderNumber},
		{AccountCode: ledger.AccountCodeRevenue, Direction: ledger.EntryDirectionCredit, AmountMinor: snapshot.TotalMinor - snapshot.TaxTotalMinor, Memo: "net revenue"},
	}
	if snapshot.TaxTotalMinor > 0 {
		entries = append(entries, ledgerapp.EntryCommand{
			AccountCode: ledger.AccountCodeTaxPayable,
			Direction:   ledger.EntryDirectionCredit,
			AmountMinor: snapshot.TaxTotalMinor,
			Memo:        "collected tax",
		})
	}
	return ledgerapp.PostCommand{
		TenantID:      o.TenantID,
		LedgerID:      ledgerID,
		ReferenceType: ReferenceTypeOrder,
		ReferenceID:   o.ID,
		Description:   "payment captured for order " + o.OrderNumber,
		TransactionAt: time.Now(),
		Currency:      o.Currency,
		Entries:       entries,
	}
}

func (s *Service) refundPosting(o *order.FinancialOrder, ledgerID uuid.UUID, amount valueobject.Money) (ledgerapp.PostCommand, error) {
	taxShare, err := amount.AllocateProportion(o.Snapshot.TaxTotalMinor, o.Snapshot.TotalMinor)
	if err != nil {
		return ledgerapp.PostCommand{}, err
	}
	taxPortion := taxShare.AmountMinor()
	revenuePortion := amount.AmountMinor() - taxPortion

	entries := []ledgerapp.EntryCommand{
		{AccountCode: ledger.AccountCodeRevenue, Direction: ledger.EntryDirectionDebit, AmountMinor: revenuePortion, Memo: "refund " + o.OrderNumber},
	}
	if taxPortion > 0 {
		entries = append(entries, ledgerapp.EntryCommand{
			AccountCode: ledger.AccountCodeTaxPayable,
			Direction:   ledger.EntryDirectionDebit,
			AmountMinor: taxPortion,
			Memo:        "refunded tax",
		})
	}
	entries = append(entries, ledgerapp.EntryCommand{
		AccountCode: ledger.AccountCodeCash,
		Direction:   ledger.EntryDirectionCredit,
		AmountMinor: amount.AmountMinor(),
		Memo:        "refund paid out",
	})
	return ledgerapp.PostCommand{
		TenantID:      o.TenantID,
		LedgerID:      ledgerID,
		ReferenceType: ReferenceTypeOrder,
		ReferenceID:   o.ID,
		Description:   "refund for order " + o.OrderNumber,
		TransactionAt: time.Now(),
		Currency:      o.Currency,
		Entries:       entries,
	}, nil
}
