package invoice

import (
	"context"

	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderPaidHandler generates the invoice for a paid order. The invoice
// mirrors the order snapshot and is recorded as paid in full; its
// financials already sit in the ledger via the order lifecycle, so the
// handler never posts.
type OrderPaidHandler struct {
	invoices invoice.InvoiceRepository
	orders   order.FinancialOrderRepository
	outbox   shared.OutboxEventSaver
	tx       shared.TxManager
	logger   *zap.Logger
}

// NewOrderPaidHandler creates a new OrderPaidHandler
func NewOrderPaidHandler(
	invoices invoice.InvoiceRepository,
	orders order.FinancialOrderRepository,
	outbox shared.OutboxEventSaver,
	tx shared.TxManager,
	logger *zap.Logger,
) *OrderPaidHandler {
	return &OrderPaidHandler{
		invoices: invoices,
		orders:   orders,
		outbox:   outbox,
		tx:       tx,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPaidHandler) EventTypes() []string {
	return []string{"FinancialOrderPaid"}
}

// Handle creates and settles the invoice for the paid order. Handling is
// idempotent: if an invoice for the order already exists, the event is a
// duplicate delivery and is acknowledged without effect.
func (h *OrderPaidHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*order.OrderPaidEvent)
	if !ok {
		return nil
	}

	if existing, err := h.invoices.FindByOrder(ctx, paid.TenantID(), paid.OrderID); err == nil && existing != nil {
		return nil
	}

	o, err := h.orders.FindByID(ctx, paid.TenantID(), paid.OrderID)
	if err != nil {
		return err
	}
	if o.Snapshot == nil {
		return shared.ErrInvalidState
	}

	number, err := h.invoices.NextInvoiceNumber(ctx, paid.TenantID())
	if err != nil {
		return err
	}
	inv, err := invoice.NewInvoice(paid.TenantID(), o.ID, o.CustomerID, number, o.Currency)
	if err != nil {
		return err
	}

	for _, item := range o.Snapshot.Items {
		if err := inv.AddLine(item.Description, item.Quantity, item.UnitPriceMinor); err != nil {
			return err
		}
	}
	for _, taxLine := range o.Snapshot.TaxLines {
		if err := inv.AddLine(taxLine.Name, decimal.NewFromInt(1), taxLine.AmountMinor); err != nil {
			return err
		}
	}

	if err := inv.Issue(); err != nil {
		return err
	}

	// a locked discount becomes a credit note, so the balance due lands
	// exactly on the captured order total
	if o.Snapshot.DiscountMinor > 0 {
		discount, err := valueobject.NewMoney(o.Snapshot.DiscountMinor, inv.Currency)
		if err != nil {
			return err
		}
		if _, err := inv.CreateCreditNote(discount, "order discount"); err != nil {
			return err
		}
	}

	captured, err := valueobject.NewMoney(o.Snapshot.TotalMinor, inv.Currency)
	if err != nil {
		return err
	}
	if err := inv.ApplyPayment(uuid.Nil, captured); err != nil {
		return err
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.invoices.Save(ctx, inv); err != nil {
			return err
		}
		return h.outbox.SaveEvents(ctx, inv.GetDomainEvents()...)
	})
	if err != nil {
		return err
	}
	inv.ClearDomainEvents()

	h.logger.Info("invoice generated for paid order",
		zap.String("tenant_id", paid.TenantID().String()),
		zap.String("order_id", paid.OrderID.String()),
		zap.String("invoice_number", inv.InvoiceNumber))
	return nil
}
