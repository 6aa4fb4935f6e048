package money

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in a read model. It serializes as a decimal
// string with exactly 2 fractional digits, so a paid amount of zero reads
// "0.00" on the wire rather than "0".
type Amount struct {
	decimal.Decimal
}

// Amt wraps a decimal for serialization as a monetary amount.
func Amt(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.StringFixed(2))), nil
}

// Quantity is an ordered quantity in a read model, serialized as a decimal
// string with exactly 3 fractional digits.
type Quantity struct {
	decimal.Decimal
}

// Qty wraps a decimal for serialization as a quantity.
func Qty(d decimal.Decimal) Quantity {
	return Quantity{Decimal: d}
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(q.StringFixed(3))), nil
}
