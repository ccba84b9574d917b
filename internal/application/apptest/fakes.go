// Package apptest provides in-memory implementations of the repository and
// infrastructure interfaces for application service tests.
package apptest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fincore/backend/internal/domain/invoice"
	"github.com/fincore/backend/internal/domain/ledger"
	"github.com/fincore/backend/internal/domain/order"
	"github.com/fincore/backend/internal/domain/payment"
	"github.com/fincore/backend/internal/domain/reconciliation"
	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PassthroughTx runs the function directly; there is no storage to roll
// back in memory
type PassthroughTx struct{}

// WithinTx implements shared.TxManager
func (PassthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// OutboxCollector records saved events for assertions
type OutboxCollector struct {
	mu     sync.Mutex
	Events []shared.DomainEvent
}

// SaveEvents implements shared.OutboxEventSaver
func (c *OutboxCollector) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, events...)
	return nil
}

// EventTypes returns the types of all collected events in order
func (c *OutboxCollector) EventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.Events))
	for _, e := range c.Events {
		types = append(types, e.EventType())
	}
	return types
}

// MemoryIdempotency is a map-backed idempotency store
type MemoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

// NewMemoryIdempotency creates an empty store
func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{keys: make(map[string]bool)}
}

// MarkProcessed implements shared.IdempotencyStore
func (m *MemoryIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

// IsProcessed implements shared.IdempotencyStore
func (m *MemoryIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

// Unmark implements shared.IdempotencyStore
func (m *MemoryIdempotency) Unmark(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// Close implements shared.IdempotencyStore
func (m *MemoryIdempotency) Close() error { return nil }

// LedgerRepo is an in-memory ledger.LedgerRepository
type LedgerRepo struct {
	mu      sync.Mutex
	ledgers map[uuid.UUID]*ledger.Ledger
}

// NewLedgerRepo creates an empty repo
func NewLedgerRepo() *LedgerRepo {
	return &LedgerRepo{ledgers: make(map[uuid.UUID]*ledger.Ledger)}
}

// FindByID implements ledger.LedgerRepository
func (r *LedgerRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ledger.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[id]
	if !ok || l.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return l, nil
}

// FindByTenant implements ledger.LedgerRepository
func (r *LedgerRepo) FindByTenant(_ context.Context, tenantID uuid.UUID) (*ledger.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.ledgers {
		if l.TenantID == tenantID {
			return l, nil
		}
	}
	return nil, shared.ErrNotFound
}

// ListTenants implements ledger.LedgerRepository
func (r *LedgerRepo) ListTenants(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.ledgers))
	for _, l := range r.ledgers {
		ids = append(ids, l.TenantID)
	}
	return ids, nil
}

// Save implements ledger.LedgerRepository
func (r *LedgerRepo) Save(_ context.Context, l *ledger.Ledger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers[l.ID] = l
	return nil
}

// AccountRepo is an in-memory ledger.AccountRepository
type AccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*ledger.Account
}

// NewAccountRepo creates an empty repo
func NewAccountRepo() *AccountRepo {
	return &AccountRepo{accounts: make(map[uuid.UUID]*ledger.Account)}
}

// FindByID implements ledger.AccountRepository
func (r *AccountRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

// FindByCode implements ledger.AccountRepository
func (r *AccountRepo) FindByCode(_ context.Context, tenantID, ledgerID uuid.UUID, code string) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.LedgerID == ledgerID && a.Code == code {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByLedger implements ledger.AccountRepository
func (r *AccountRepo) FindByLedger(_ context.Context, tenantID, ledgerID uuid.UUID) ([]*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Account
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.LedgerID == ledgerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Save implements ledger.AccountRepository
func (r *AccountRepo) Save(_ context.Context, a *ledger.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = a
	return nil
}

// TransactionRepo is an in-memory ledger.TransactionRepository
type TransactionRepo struct {
	mu           sync.Mutex
	transactions []*ledger.Transaction
}

// NewTransactionRepo creates an empty repo
func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{}
}

// Save implements ledger.TransactionRepository
func (r *TransactionRepo) Save(_ context.Context, t *ledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, t)
	return nil
}

// FindByID implements ledger.TransactionRepository
func (r *TransactionRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transactions {
		if t.TenantID == tenantID && t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByReference implements ledger.TransactionRepository
func (r *TransactionRepo) FindByReference(_ context.Context, tenantID uuid.UUID, referenceType string, referenceID uuid.UUID) ([]*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Transaction
	for _, t := range r.transactions {
		if t.TenantID == tenantID && t.ReferenceType == referenceType && t.ReferenceID == referenceID {
			out = append(out, t)
		}
	}
	return out, nil
}

// FindByLedger implements ledger.TransactionRepository
func (r *TransactionRepo) FindByLedger(_ context.Context, tenantID, ledgerID uuid.UUID) ([]*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Transaction
	for _, t := range r.transactions {
		if t.TenantID == tenantID && t.LedgerID == ledgerID {
			out = append(out, t)
		}
	}
	return out, nil
}

// EntriesForAccount implements ledger.TransactionRepository
func (r *TransactionRepo) EntriesForAccount(_ context.Context, tenantID, accountID uuid.UUID, asOf *time.Time) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, t := range r.transactions {
		if t.TenantID != tenantID {
			continue
		}
		for _, e := range t.Entries {
			if e.AccountID != accountID {
				continue
			}
			if asOf != nil && e.TransactionAt.After(*asOf) {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// OrderRepo is an in-memory order.FinancialOrderRepository
type OrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.FinancialOrder
}

// NewOrderRepo creates an empty repo
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[uuid.UUID]*order.FinancialOrder)}
}

// FindByID implements order.FinancialOrderRepository
func (r *OrderRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*order.FinancialOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

// FindByOrderNumber implements order.FinancialOrderRepository
func (r *OrderRepo) FindByOrderNumber(_ context.Context, tenantID uuid.UUID, orderNumber string) (*order.FinancialOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByCustomer implements order.FinancialOrderRepository
func (r *OrderRepo) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID) ([]*order.FinancialOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.FinancialOrder
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// FindByStatus implements order.FinancialOrderRepository
func (r *OrderRepo) FindByStatus(_ context.Context, tenantID uuid.UUID, status order.OrderStatus) ([]*order.FinancialOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.FinancialOrder
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// Save implements order.FinancialOrderRepository
func (r *OrderRepo) Save(_ context.Context, o *order.FinancialOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

// SaveWithLock implements order.FinancialOrderRepository
func (r *OrderRepo) SaveWithLock(_ context.Context, o *order.FinancialOrder, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if ok && stored.GetVersion() != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	o.IncrementVersion()
	r.orders[o.ID] = o
	return nil
}

// RefundRepo is an in-memory order.RefundRepository
type RefundRepo struct {
	mu      sync.Mutex
	refunds map[uuid.UUID]*order.Refund
}

// NewRefundRepo creates an empty repo
func NewRefundRepo() *RefundRepo {
	return &RefundRepo{refunds: make(map[uuid.UUID]*order.Refund)}
}

// FindByID implements order.RefundRepository
func (r *RefundRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*order.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.refunds[id]
	if !ok || ref.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return ref, nil
}

// FindByOrder implements order.RefundRepository
func (r *RefundRepo) FindByOrder(_ context.Context, tenantID, orderID uuid.UUID) ([]*order.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.Refund
	for _, ref := range r.refunds {
		if ref.TenantID == tenantID && ref.OrderID == orderID {
			out = append(out, ref)
		}
	}
	return out, nil
}

// Save implements order.RefundRepository
func (r *RefundRepo) Save(_ context.Context, ref *order.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds[ref.ID] = ref
	return nil
}

// PaymentRepo is an in-memory payment.PaymentRepository
type PaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
}

// NewPaymentRepo creates an empty repo
func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{payments: make(map[uuid.UUID]*payment.Payment)}
}

// FindByID implements payment.PaymentRepository
func (r *PaymentRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// FindByOrder implements payment.PaymentRepository
func (r *PaymentRepo) FindByOrder(_ context.Context, tenantID, orderID uuid.UUID) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindByProviderPaymentID implements payment.PaymentRepository
func (r *PaymentRepo) FindByProviderPaymentID(_ context.Context, tenantID uuid.UUID, providerPaymentID string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.ProviderPaymentID == providerPaymentID {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

// Save implements payment.PaymentRepository
func (r *PaymentRepo) Save(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = p
	return nil
}

// SaveWithLock implements payment.PaymentRepository
func (r *PaymentRepo) SaveWithLock(_ context.Context, p *payment.Payment, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[p.ID]
	if ok && stored.GetVersion() != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	p.IncrementVersion()
	r.payments[p.ID] = p
	return nil
}

// InvoiceRepo is an in-memory invoice.InvoiceRepository
type InvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*invoice.Invoice
	seq      int
}

// NewInvoiceRepo creates an empty repo
func NewInvoiceRepo() *InvoiceRepo {
	return &InvoiceRepo{invoices: make(map[uuid.UUID]*invoice.Invoice)}
}

// FindByID implements invoice.InvoiceRepository
func (r *InvoiceRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

// FindByInvoiceNumber implements invoice.InvoiceRepository
func (r *InvoiceRepo) FindByInvoiceNumber(_ context.Context, tenantID uuid.UUID, invoiceNumber string) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID && inv.InvoiceNumber == invoiceNumber {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByOrder implements invoice.InvoiceRepository
func (r *InvoiceRepo) FindByOrder(_ context.Context, tenantID, orderID uuid.UUID) (*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID && inv.OrderID == orderID {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByCustomer implements invoice.InvoiceRepository
func (r *InvoiceRepo) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID) ([]*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invoice.Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID && inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

// FindByStatus implements invoice.InvoiceRepository
func (r *InvoiceRepo) FindByStatus(_ context.Context, tenantID uuid.UUID, status invoice.InvoiceStatus) ([]*invoice.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invoice.Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID && inv.Status == status {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Save implements invoice.InvoiceRepository
func (r *InvoiceRepo) Save(_ context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[inv.ID] = inv
	return nil
}

// SaveWithLock implements invoice.InvoiceRepository
func (r *InvoiceRepo) SaveWithLock(_ context.Context, inv *invoice.Invoice, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if ok && stored.GetVersion() != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	inv.IncrementVersion()
	r.invoices[inv.ID] = inv
	return nil
}

// NextInvoiceNumber implements invoice.InvoiceRepository
func (r *InvoiceRepo) NextInvoiceNumber(_ context.Context, _ uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("INV-%03d", r.seq), nil
}

// ReportRepo is an in-memory reconciliation.ReportRepository
type ReportRepo struct {
	mu      sync.Mutex
	reports []*reconciliation.Report
}

// NewReportRepo creates an empty repo
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

// Save implements reconciliation.ReportRepository
func (r *ReportRepo) Save(_ context.Context, report *reconciliation.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

// FindLatest implements reconciliation.ReportRepository
func (r *ReportRepo) FindLatest(_ context.Context, tenantID uuid.UUID) (*reconciliation.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].TenantID == tenantID {
			return r.reports[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindSince implements reconciliation.ReportRepository
func (r *ReportRepo) FindSince(_ context.Context, tenantID uuid.UUID, since time.Time) ([]*reconciliation.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reconciliation.Report
	for _, report := range r.reports {
		if report.TenantID == tenantID && report.GeneratedAt.After(since) {
			out = append(out, report)
		}
	}
	return out, nil
}

// GatewayCall records one provider interaction
type GatewayCall struct {
	Op                string
	ProviderPaymentID string
	AmountMinor       int64
}

// FakeGateway is a scriptable payment.Gateway
type FakeGateway struct {
	mu         sync.Mutex
	Calls      []GatewayCall
	FailRefund bool
	seq        int
}

// CreatePaymentIntent implements payment.Gateway
func (g *FakeGateway) CreatePaymentIntent(_ context.Context, amount valueobject.Money, _ map[string]string) (*payment.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("pi_fake_%d", g.seq)
	g.Calls = append(g.Calls, GatewayCall{Op: "create", ProviderPaymentID: id, AmountMinor: amount.AmountMinor()})
	return &payment.PaymentIntent{ProviderPaymentID: id, ClientSecret: id + "_secret", Status: "requires_confirmation"}, nil
}

// ConfirmPayment implements payment.Gateway
func (g *FakeGateway) ConfirmPayment(_ context.Context, providerPaymentID string) (*payment.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, GatewayCall{Op: "confirm", ProviderPaymentID: providerPaymentID})
	return &payment.PaymentIntent{ProviderPaymentID: providerPaymentID, Status: "succeeded"}, nil
}

// CancelPayment implements payment.Gateway
func (g *FakeGateway) CancelPayment(_ context.Context, providerPaymentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, GatewayCall{Op: "cancel", ProviderPaymentID: providerPaymentID})
	return nil
}

// Refund implements payment.Gateway
func (g *FakeGateway) Refund(_ context.Context, providerPaymentID string, amount valueobject.Money) (*payment.GatewayRefund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, GatewayCall{Op: "refund", ProviderPaymentID: providerPaymentID, AmountMinor: amount.AmountMinor()})
	if g.FailRefund {
		return nil, payment.ErrGatewayDeclined
	}
	g.seq++
	return &payment.GatewayRefund{ProviderRefundID: fmt.Sprintf("re_fake_%d", g.seq), Status: "succeeded"}, nil
}
