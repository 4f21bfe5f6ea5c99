// Package pricing implements the quotation pricing engine: the per-line
// total calculator and the cascading aggregator that derives a
// quotation's monetary breakdown from its lines and percentage
// parameters. Everything here is pure; callers recompute from raw lines
// after every edit instead of patching derived values.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Line validation errors, surfaced as field-scoped messages by callers.
var (
	ErrQuantityNotPositive  = errors.New("quantity must be greater than zero")
	ErrNegativeUnitPrice    = errors.New("unit_price must not be negative")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 1")
)

// LineTotals holds the derived values of a single priced line.
type LineTotals struct {
	PartialValue decimal.Decimal
	Profit       decimal.Decimal
	TotalValue   decimal.Decimal
}

// ComputeLine derives a line's totals from its raw fields:
// partial_value = quantity * unit_price, profit = partial_value *
// profit_percentage, total_value = partial_value + profit. Product lines
// pass their unit count as a decimal; the formula is identical for both
// line kinds.
func ComputeLine(quantity, unitPrice, profitPercentage decimal.Decimal) (LineTotals, error) {
	if !quantity.IsPositive() {
		return LineTotals{}, ErrQuantityNotPositive
	}
	if unitPrice.IsNegative() {
		return LineTotals{}, ErrNegativeUnitPrice
	}
	if err := ValidatePercentage(profitPercentage); err != nil {
		return LineTotals{}, err
	}

	partial := quantity.Mul(unitPrice)
	profit := partial.Mul(profitPercentage)
	return LineTotals{
		PartialValue: partial,
		Profit:       profit,
		TotalValue:   partial.Add(profit),
	}, nil
}

// ValidatePercentage checks that a stored percentage is a decimal in [0,1].
func ValidatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return ErrPercentageOutOfRange
	}
	return nil
}
