package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount stored with two decimal places.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal as a Money value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// NewMoneyFromString parses a decimal string such as "1500.00".
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

// NewMoneyFromFloat converts a float amount to Money.
func NewMoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{Decimal: decimal.Zero}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Decimal: m.Decimal.Sub(other.Decimal)}
}

// MulInt returns m multiplied by an integer quantity.
func (m Money) MulInt(n int64) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(n))}
}

// Kobo returns the amount in the currency's minor unit.
// Paystack amounts are integers of kobo, so 1500.00 NGN becomes 150000.
func (m Money) Kobo() int64 {
	return m.Decimal.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MoneyFromKobo converts a minor-unit integer back to Money.
func MoneyFromKobo(kobo int64) Money {
	return Money{Decimal: decimal.NewFromInt(kobo).Div(decimal.NewFromInt(100))}
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// MarshalJSON renders the amount as a string with two decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Decimal.Round(2).StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("unmarshal money %q: %w", s, err)
	}
	m.Decimal = d
	return nil
}

// Value stores the amount as a two-decimal string.
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(2).StringFixed(2), nil
}

// Scan reads the amount from a string or numeric column.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.Decimal = decimal.Zero
		return nil
	}
	switch v := value.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		m.Decimal = d
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		m.Decimal = d
	case float64:
		m.Decimal = decimal.NewFromFloat(v)
	case int64:
		m.Decimal = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("unsupported money column type %T", value)
	}
	return nil
}
