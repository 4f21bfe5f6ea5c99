package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percentages are the six independent parameters of the cascade, each a
// decimal in [0,1]. ProfitIVA is conventionally 0.19.
type Percentages struct {
	CommercialManagement decimal.Decimal
	Administration       decimal.Decimal
	Contingency          decimal.Decimal
	Profit               decimal.Decimal
	ProfitIVA            decimal.Decimal
	Withholding          decimal.Decimal
}

// DefaultPercentages returns the parameters a fresh draft starts with.
func DefaultPercentages() Percentages {
	return Percentages{
		CommercialManagement: decimal.NewFromFloat(0.05),
		Administration:       decimal.NewFromFloat(0.03),
		Contingency:          decimal.NewFromFloat(0.02),
		Profit:               decimal.NewFromFloat(0.15),
		ProfitIVA:            decimal.NewFromFloat(0.19),
		Withholding:          decimal.NewFromFloat(0.025),
	}
}

// Validate checks every parameter is in [0,1].
func (p Percentages) Validate() error {
	checks := []struct {
		name string
		pct  decimal.Decimal
	}{
		{"commercial_management", p.CommercialManagement},
		{"administration", p.Administration},
		{"contingency", p.Contingency},
		{"profit", p.Profit},
		{"profit_iva", p.ProfitIVA},
		{"withholding", p.Withholding},
	}
	for _, c := range checks {
		if err := ValidatePercentage(c.pct); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// Breakdown is the ordered monetary aggregate of a quotation, from the
// flat subtotal down to the final total.
type Breakdown struct {
	Subtotal                   decimal.Decimal
	CommercialManagementAmount decimal.Decimal
	Subtotal2                  decimal.Decimal
	AdministrationAmount       decimal.Decimal
	ContingencyAmount          decimal.Decimal
	ProfitAmount               decimal.Decimal
	ProfitIVAAmount            decimal.Decimal
	Subtotal3                  decimal.Decimal
	WithholdingAmount          decimal.Decimal
	TotalValue                 decimal.Decimal
}

// Aggregate applies the cascading formula to the line totals:
//
//	subtotal  = sum of line total_value
//	cm        = subtotal * commercial_management
//	subtotal2 = subtotal + cm
//	admin, contingency, profit are each taken off subtotal2
//	profit_iva = profit_amt * profit_iva
//	subtotal3 = subtotal2 + admin + contingency + profit + profit_iva
//	withholding = subtotal3 * withholding, ADDED into total_value
//
// Administration, contingency and profit cascade off subtotal2, and
// withholding is added, matching the live recompute path of the
// dashboard. Always aggregate from raw lines; feeding a previous
// breakdown's total back in as a subtotal applies the cascade twice.
func Aggregate(lines []LineTotals, p Percentages) Breakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.TotalValue)
	}

	cm := subtotal.Mul(p.CommercialManagement)
	subtotal2 := subtotal.Add(cm)

	admin := subtotal2.Mul(p.Administration)
	contingency := subtotal2.Mul(p.Contingency)
	profit := subtotal2.Mul(p.Profit)
	profitIVA := profit.Mul(p.ProfitIVA)

	subtotal3 := subtotal2.Add(admin).Add(contingency).Add(profit).Add(profitIVA)
	withholding := subtotal3.Mul(p.Withholding)

	return Breakdown{
		Subtotal:                   subtotal,
		CommercialManagementAmount: cm,
		Subtotal2:                  subtotal2,
		AdministrationAmount:       admin,
		ContingencyAmount:          contingency,
		ProfitAmount:               profit,
		ProfitIVAAmount:            profitIVA,
		Subtotal3:                  subtotal3,
		WithholdingAmount:          withholding,
		TotalValue:                 subtotal3.Add(withholding),
	}
}

// Equal reports whether two breakdowns carry the same values. Used by
// the save path to reject payloads whose derived fields have drifted
// from a recomputation.
func (b Breakdown) Equal(other Breakdown) bool {
	return b.Subtotal.Equal(other.Subtotal) &&
		b.CommercialManagementAmount.Equal(other.CommercialManagementAmount) &&
		b.Subtotal2.Equal(other.Subtotal2) &&
		b.AdministrationAmount.Equal(other.AdministrationAmount) &&
		b.ContingencyAmount.Equal(other.ContingencyAmount) &&
		b.ProfitAmount.Equal(other.ProfitAmount) &&
		b.ProfitIVAAmount.Equal(other.ProfitIVAAmount) &&
		b.Subtotal3.Equal(other.Subtotal3) &&
		b.WithholdingAmount.Equal(other.WithholdingAmount) &&
		b.TotalValue.Equal(other.TotalValue)
}
