// Package pricing computes tax-inclusive line totals for order lines.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/samenkoop/winkel/internal/money"
)

// OptionCharge is one selected article option with its per-unit surcharge.
type OptionCharge struct {
	PriceDelta decimal.Decimal
}

// Line describes the inputs of a single line price computation. UnitPrice
// carries 2 fractional digits, Quantity up to 3, TaxRate is a percentage
// with 2 fractional digits. Validation (non-negative quantity and price,
// required options present) happens upstream.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	TaxRate   decimal.Decimal
	Options   []OptionCharge
}

// Breakdown exposes the intermediate components of a priced line. Only
// Total is rounded; the other fields keep full precision.
type Breakdown struct {
	BasePrice   decimal.Decimal
	OptionPrice decimal.Decimal
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Compute prices a line: base price plus per-unit option surcharges, then
// tax on top, rounded half-up to 2 decimals once at the end.
func Compute(line Line) Breakdown {
	base := line.UnitPrice.Mul(line.Quantity)

	optionPrice := decimal.Zero
	for _, opt := range line.Options {
		if opt.PriceDelta.IsPositive() {
			optionPrice = optionPrice.Add(opt.PriceDelta.Mul(line.Quantity))
		}
	}

	subtotal := base.Add(optionPrice)
	tax := subtotal.Mul(line.TaxRate.Div(oneHundred))

	return Breakdown{
		BasePrice:   base,
		OptionPrice: optionPrice,
		Subtotal:    subtotal,
		TaxAmount:   tax,
		Total:       money.Round2(subtotal.Add(tax)),
	}
}

// Total is a convenience wrapper returning only the rounded line total.
func Total(line Line) decimal.Decimal {
	return Compute(line).Total
}
