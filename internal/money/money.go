// Package money centralizes monetary arithmetic for the storefront.
//
// All amounts are decimal values with 2 fractional digits, quantities carry
// 3. Rounding is half-up and happens exactly once, at the point a value is
// persisted or returned; intermediate results keep full precision.
package money

import "github.com/shopspring/decimal"

// Round2 rounds an amount half-up to 2 fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Ratio returns paid/total, or zero when total is not positive.
func Ratio(paid, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return paid.Div(total)
}

// Scale applies a payment ratio to an amount and rounds the result.
func Scale(amount, ratio decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(ratio))
}

// Clamp limits value to the [0, max] interval.
func Clamp(value, max decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	if value.GreaterThan(max) {
		return max
	}
	return value
}

// Share divides cost evenly across n participants, rounded per share.
// A zero participant count yields zero.
func Share(cost decimal.Decimal, n int64) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return Round2(cost.Div(decimal.NewFromInt(n)))
}
