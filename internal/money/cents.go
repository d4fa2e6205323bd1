package money

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor units (USD cents). All cart and order math is
// done in Cents so totals never drift the way float sums do.
type Cents int64

// Parse converts a decimal string such as "45.00" or "5.5" to Cents,
// rounding half away from zero to the nearest cent.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// FromDecimal converts a dollar amount to Cents.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

// FromDollars converts a float dollar amount (as sent by browsers) to Cents.
func FromDollars(f float64) Cents {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount in dollars.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Dollars returns the amount in dollars as a float, for display math only.
func (c Cents) Dollars() float64 {
	f, _ := c.Decimal().Float64()
	return f
}

// Mul returns the amount multiplied by a quantity.
func (c Cents) Mul(quantity int) Cents {
	return c * Cents(quantity)
}

// String formats the amount with exactly two decimal places ("25.50").
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Format formats the amount for display ("$25.50").
func (c Cents) Format() string {
	return "$" + c.String()
}

// MarshalJSON encodes the amount as a decimal string, the catalog's wire form.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a decimal string ("45.00") or a JSON number (45).
func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
