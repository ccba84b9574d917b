package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
	CNY Currency = "CNY" // Chinese Yuan
	HKD Currency = "HKD" // Hong Kong Dollar
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// IsValid returns true if the code is a well-formed 3-letter currency code
func (c Currency) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// String returns the string representation of the currency
func (c Currency) String() string {
	return string(c)
}

// ErrCurrencyMismatch is returned when a binary operation receives two
// different currencies. Amounts are never silently coerced.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

// Money is a value object representing a monetary amount in integer minor
// units (e.g., cents). It is immutable - all operations return new instances.
// Using integers for all stored amounts avoids floating-point drift entirely;
// fractional factors (tax rates, proportional splits) go through decimal
// arithmetic and collapse back to a minor unit via half-up rounding.
type Money struct {
	amountMinor int64
	currency    Currency
}

// NewMoney creates a new Money with the specified minor-unit amount and currency
func NewMoney(amountMinor int64, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("money: invalid currency code %q", currency)
	}
	return Money{
		amountMinor: amountMinor,
		currency:    currency,
	}, nil
}

// MustNewMoney creates Money and panics on an invalid currency.
// Intended for constants and tests.
func MustNewMoney(amountMinor int64, currency Currency) Money {
	m, err := NewMoney(amountMinor, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amountMinor: 0, currency: currency}
}

// AmountMinor returns the amount in minor units
func (m Money) AmountMinor() int64 {
	return m.amountMinor
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amountMinor == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amountMinor > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amountMinor < 0
}

func (m Money) checkCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// SameCurrency returns true if both values share a currency
func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Add returns a new Money with the sum of both amounts.
// Returns ErrCurrencyMismatch if currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amountMinor: m.amountMinor + other.amountMinor, currency: m.currency}, nil
}

// MustAdd adds two Money values, panics if currencies differ
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Returns ErrCurrencyMismatch if currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amountMinor: m.amountMinor - other.amountMinor, currency: m.currency}, nil
}

// MustSubtract subtracts two Money values, panics if currencies differ
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// MultiplyInt returns a new Money multiplied by an integer factor
func (m Money) MultiplyInt(factor int64) Money {
	return Money{amountMinor: m.amountMinor * factor, currency: m.currency}
}

// MultiplyDecimal multiplies by a fractional factor and rounds half-up to the
// nearest minor unit.
func (m Money) MultiplyDecimal(factor decimal.Decimal) Money {
	product := decimal.NewFromInt(m.amountMinor).Mul(factor).Round(0)
	return Money{amountMinor: product.IntPart(), currency: m.currency}
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{amountMinor: -m.amountMinor, currency: m.currency}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	if m.amountMinor < 0 {
		return m.Negate()
	}
	return m
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amountMinor == other.amountMinor
}

// LessThan returns true if this Money is less than the other.
// Returns ErrCurrencyMismatch if currencies differ.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.checkCurrency(other); err != nil {
		return false, err
	}
	return m.amountMinor < other.amountMinor, nil
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.checkCurrency(other); err != nil {
		return false, err
	}
	return m.amountMinor > other.amountMinor, nil
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.checkCurrency(other); err != nil {
		return false, err
	}
	return m.amountMinor >= other.amountMinor, nil
}

// AllocateProportion returns the share of this Money corresponding to
// num/den, rounded half-up to the nearest minor unit. The caller assigns any
// rounding remainder to one of the parts so the pieces still sum exactly.
func (m Money) AllocateProportion(num, den int64) (Money, error) {
	if den == 0 {
		return Money{}, errors.New("money: zero denominator in proportional allocation")
	}
	ratio := decimal.NewFromInt(num).Div(decimal.NewFromInt(den))
	return m.MultiplyDecimal(ratio), nil
}

// String returns a string representation of the Money, e.g. "1080 USD"
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.amountMinor, m.currency)
}

// Decimal returns the amount as a decimal of minor units
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.amountMinor)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AmountMinor int64    `json:"amount_minor"`
		Currency    Currency `json:"currency"`
	}{
		AmountMinor: m.amountMinor,
		Currency:    m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		AmountMinor int64    `json:"amount_minor"`
		Currency    Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if !v.Currency.IsValid() {
		return fmt.Errorf("money: invalid currency code %q", v.Currency)
	}
	m.amountMinor = v.AmountMinor
	m.currency = v.Currency
	return nil
}
