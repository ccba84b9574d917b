package order

import (
	"fmt"
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Typed failures for the financial order lifecycle
var (
	ErrInvalidOrderState     = shared.NewDomainError("INVALID_ORDER_STATE", "Operation is not allowed in the current order state")
	ErrFinancialOrderLocked  = shared.NewDomainError("FINANCIAL_ORDER_LOCKED", "Order financials are locked and cannot be modified")
	ErrOrderHasNoItems       = shared.NewDomainError("ORDER_HAS_NO_ITEMS", "Order must have at least one item before locking")
	ErrRefundExceedsTotal    = shared.NewDomainError("REFUND_EXCEEDS_TOTAL", "Cumulative refunds cannot exceed the captured order total")
	ErrRefundNotPositive     = shared.NewDomainError("REFUND_NOT_POSITIVE", "Refund amount must be positive")
	ErrOrderCurrencyMismatch = shared.NewDomainError("ORDER_CURRENCY_MISMATCH", "Amount currency does not match the order currency")
)

// OrderStatus represents the lifecycle state of a financial order
type OrderStatus string

const (
	OrderStatusDraft    OrderStatus = "DRAFT"
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusRefunded OrderStatus = "REFUNDED"
	OrderStatusFailed   OrderStatus = "FAILED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPending, OrderStatusPaid, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if transition to target status is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusPending
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusFailed
	case OrderStatusPaid:
		return target == OrderStatusRefunded
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusRefunded || s == OrderStatusFailed
}

// FinancialOrderItem is one priced line of an order
type FinancialOrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	Description    string
	Quantity       decimal.Decimal
	UnitPriceMinor int64
	LineTotalMinor int64
}

// LineTotal computes quantity times unit price, rounded to the minor unit
func (i *FinancialOrderItem) LineTotal(currency valueobject.Currency) valueobject.Money {
	unit := valueobject.MustNewMoney(i.UnitPriceMinor, currency)
	return unit.MultiplyDecimal(i.Quantity)
}

// TaxLine is one tax component applied to the order subtotal
type TaxLine struct {
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	AmountMinor int64           `json:"amount_minor"`
}

// SnapshotItem is the frozen form of an order item inside a snapshot
type SnapshotItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceMinor int64           `json:"unit_price_minor"`
	LineTotalMinor int64           `json:"line_total_minor"`
}

// OrderSnapshot is the immutable record of what was sold, captured at lock
// time. Later catalog or pricing changes never touch it.
type OrderSnapshot struct {
	Items         []SnapshotItem `json:"items"`
	SubtotalMinor int64          `json:"subtotal_minor"`
	TaxLines      []TaxLine      `json:"tax_lines"`
	TaxTotalMinor int64          `json:"tax_total_minor"`
	DiscountMinor int64          `json:"discount_minor"`
	TotalMinor    int64          `json:"total_minor"`
	Currency      string         `json:"currency"`
	TakenAt       time.Time      `json:"taken_at"`
}

// FinancialOrder is the financial view of an order: amounts, tax, lifecycle
// state and the locked snapshot. Catalog concerns live elsewhere.
type FinancialOrder struct {
	shared.TenantAggregateRoot
	OrderNumber   string
	CustomerID    uuid.UUID
	Status        OrderStatus
	Currency      valueobject.Currency
	Items         []FinancialOrderItem
	TaxRates      []TaxRate
	DiscountMinor int64
	SubtotalMinor int64
	TaxTotalMinor int64
	TotalMinor    int64
	RefundedMinor int64
	TaxLines      []TaxLine
	Snapshot      *OrderSnapshot
	ProviderRef   string
	FailureReason string
	LockedAt      *time.Time
	PaidAt        *time.Time
}

// TaxRate is a named fractional rate applied to the order subtotal
type TaxRate struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// NewFinancialOrder creates a draft order for a tenant
func NewFinancialOrder(tenantID, customerID uuid.UUID, orderNumber string, currency valueobject.Currency) (*FinancialOrder, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Order currency is not a valid currency code")
	}

	o := &FinancialOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderNumber:         orderNumber,
		CustomerID:          customerID,
		Status:              OrderStatusDraft,
		Currency:            currency,
		Items:               []FinancialOrderItem{},
		TaxRates:            []TaxRate{},
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// IsLocked reports whether financial fields are frozen. Everything past
// draft is locked.
func (o *FinancialOrder) IsLocked() bool {
	return o.Status != OrderStatusDraft
}

func (o *FinancialOrder) ensureDraft() error {
	if o.IsLocked() {
		return ErrFinancialOrderLocked
	}
	return nil
}

// AddItem adds a priced line to a draft order
func (o *FinancialOrder) AddItem(productID uuid.UUID, description string, quantity decimal.Decimal, unitPriceMinor int64) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if unitPriceMinor < 0 {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}

	item := FinancialOrderItem{
		ID:             uuid.New(),
		OrderID:        o.ID,
		ProductID:      productID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceMinor: unitPriceMinor,
	}
	item.LineTotalMinor = item.LineTotal(o.Currency).AmountMinor()
	o.Items = append(o.Items, item)

	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// RemoveItem removes an item from a draft order
func (o *FinancialOrder) RemoveItem(itemID uuid.UUID) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

// UpdateItemPrice changes the unit price of a draft order item
func (o *FinancialOrder) UpdateItemPrice(itemID uuid.UUID, unitPriceMinor int64) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	if unitPriceMinor < 0 {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items[i].UnitPriceMinor = unitPriceMinor
			o.Items[i].LineTotalMinor = o.Items[i].LineTotal(o.Currency).AmountMinor()
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

// SetTaxRates replaces the tax rates applied to the order subtotal
func (o *FinancialOrder) SetTaxRates(rates []TaxRate) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	for _, r := range rates {
		if r.Rate.IsNegative() {
			return shared.NewDomainError("INVALID_TAX_RATE", fmt.Sprintf("Tax rate %q cannot be negative", r.Name))
		}
	}
	o.TaxRates = rates
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// ApplyDiscount sets a flat discount on the draft order subtotal
func (o *FinancialOrder) ApplyDiscount(discountMinor int64) error {
	if err := o.ensureDraft(); err != nil {
		return err
	}
	if discountMinor < 0 {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if discountMinor > o.SubtotalMinor {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the order subtotal")
	}
	o.DiscountMinor = discountMinor
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// recalculateTotals recomputes subtotal, tax lines and total from items.
// Tax applies to the discounted subtotal, each rate rounded independently
// to the minor unit.
func (o *FinancialOrder) recalculateTotals() {
	var subtotal int64
	for _, item := range o.Items {
		subtotal += item.LineTotalMinor
	}
	o.SubtotalMinor = subtotal

	if o.DiscountMinor > subtotal {
		o.DiscountMinor = subtotal
	}
	taxable := valueobject.MustNewMoney(subtotal-o.DiscountMinor, o.Currency)

	o.TaxLines = make([]TaxLine, 0, len(o.TaxRates))
	var taxTotal int64
	for _, rate := range o.TaxRates {
		amount := taxable.MultiplyDecimal(rate.Rate).AmountMinor()
		o.TaxLines = append(o.TaxLines, TaxLine{Name: rate.Name, Rate: rate.Rate, AmountMinor: amount})
		taxTotal += amount
	}
	o.TaxTotalMinor = taxTotal
	o.TotalMinor = subtotal - o.DiscountMinor + taxTotal
}

// Lock freezes the order financials: totals are recomputed one final time,
// the snapshot is captured, and the order moves to PENDING. From this point
// items, prices, rates and discounts are immutable.
func (o *FinancialOrder) Lock() error {
	if !o.Status.CanTransitionTo(OrderStatusPending) {
		return invalidTransition(o.Status, OrderStatusPending)
	}
	if len(o.Items) == 0 {
		return ErrOrderHasNoItems
	}

	o.recalculateTotals()

	now := time.Now()
	snapshot := &OrderSnapshot{
		Items:         make([]SnapshotItem, 0, len(o.Items)),
		SubtotalMinor: o.SubtotalMinor,
		TaxLines:      append([]TaxLine(nil), o.TaxLines...),
		TaxTotalMinor: o.TaxTotalMinor,
		DiscountMinor: o.DiscountMinor,
		TotalMinor:    o.TotalMinor,
		Currency:      string(o.Currency),
		TakenAt:       now,
	}
	for _, item := range o.Items {
		snapshot.Items = append(snapshot.Items, SnapshotItem{
			ProductID:      item.ProductID,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			LineTotalMinor: item.LineTotalMinor,
		})
	}

	o.Snapshot = snapshot
	o.Status = OrderStatusPending
	o.LockedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderLockedEvent(o))
	return nil
}

// MarkPaid records successful payment capture and moves the order to PAID
func (o *FinancialOrder) MarkPaid(providerRef string) error {
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return invalidTransition(o.Status, OrderStatusPaid)
	}

	now := time.Now()
	o.Status = OrderStatusPaid
	o.ProviderRef = providerRef
	o.PaidAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// Fail records a failed payment attempt and moves the order to FAILED
func (o *FinancialOrder) Fail(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusFailed) {
		return invalidTransition(o.Status, OrderStatusFailed)
	}

	o.Status = OrderStatusFailed
	o.FailureReason = reason
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderFailedEvent(o, reason))
	return nil
}

// ApplyRefund records a partial or full refund against a paid order. The
// cumulative refunded amount can never exceed the captured total; the order
// flips to REFUNDED only when fully refunded. Partial refunds keep the
// order in PAID so further refunds remain possible.
func (o *FinancialOrder) ApplyRefund(amount valueobject.Money, reason string) error {
	if o.Status != OrderStatusPaid {
		return invalidTransition(o.Status, OrderStatusRefunded)
	}
	if amount.Currency() != o.Currency {
		return ErrOrderCurrencyMismatch
	}
	if !amount.IsPositive() {
		return ErrRefundNotPositive
	}
	if o.RefundedMinor+amount.AmountMinor() > o.TotalMinor {
		return ErrRefundExceedsTotal
	}

	o.RefundedMinor += amount.AmountMinor()
	fullyRefunded := o.RefundedMinor == o.TotalMinor
	if fullyRefunded {
		o.Status = OrderStatusRefunded
	}
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderRefundedEvent(o, amount.AmountMinor(), reason, fullyRefunded))
	return nil
}

// RemainingRefundable returns how much of the captured total can still be
// refunded
func (o *FinancialOrder) RemainingRefundable() valueobject.Money {
	return valueobject.MustNewMoney(o.TotalMinor-o.RefundedMinor, o.Currency)
}

// Total returns the captured order total as Money
func (o *FinancialOrder) Total() valueobject.Money {
	return valueobject.MustNewMoney(o.TotalMinor, o.Currency)
}

func invalidTransition(from, to OrderStatus) error {
	return shared.NewDomainError(
		ErrInvalidOrderState.Code,
		fmt.Sprintf("Cannot transition order from %s to %s", from, to),
	)
}
