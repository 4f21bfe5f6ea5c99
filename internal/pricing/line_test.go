package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeLine(t *testing.T) {
	tests := []struct {
		name       string
		quantity   string
		unitPrice  string
		profitPct  string
		expPartial string
		expProfit  string
		expTotal   string
	}{
		{"ten panels at 1000 with 25% profit", "10", "1000", "0.25", "10000", "2500", "12500"},
		{"zero profit percentage", "4", "250.50", "0", "1002", "0", "1002"},
		{"full profit percentage", "1", "100", "1", "100", "100", "200"},
		{"fractional quantity", "2.5", "100.50", "0.1", "251.25", "25.125", "276.375"},
		{"free item", "3", "0", "0.5", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeLine(dec(tt.quantity), dec(tt.unitPrice), dec(tt.profitPct))
			if err != nil {
				t.Fatalf("ComputeLine(%s, %s, %s) returned error: %v",
					tt.quantity, tt.unitPrice, tt.profitPct, err)
			}
			if !got.PartialValue.Equal(dec(tt.expPartial)) {
				t.Errorf("partial_value = %s, want %s", got.PartialValue, tt.expPartial)
			}
			if !got.Profit.Equal(dec(tt.expProfit)) {
				t.Errorf("profit = %s, want %s", got.Profit, tt.expProfit)
			}
			if !got.TotalValue.Equal(dec(tt.expTotal)) {
				t.Errorf("total_value = %s, want %s", got.TotalValue, tt.expTotal)
			}
		})
	}
}

func TestComputeLineTotalMatchesClosedForm(t *testing.T) {
	// total_value == quantity * unit_price * (1 + profit_percentage)
	qty := dec("7")
	price := dec("1234.56")
	pct := dec("0.33")

	got, err := ComputeLine(qty, price, pct)
	if err != nil {
		t.Fatalf("ComputeLine error: %v", err)
	}

	want := qty.Mul(price).Mul(decimal.NewFromInt(1).Add(pct))
	if !got.TotalValue.Equal(want) {
		t.Errorf("total_value = %s, want %s", got.TotalValue, want)
	}
}

func TestComputeLineRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		profitPct string
		wantErr   error
	}{
		{"zero quantity", "0", "1000", "0.25", ErrQuantityNotPositive},
		{"negative quantity", "-1", "1000", "0.25", ErrQuantityNotPositive},
		{"negative unit price", "10", "-0.01", "0.25", ErrNegativeUnitPrice},
		{"profit percentage above one", "10", "1000", "1.01", ErrPercentageOutOfRange},
		{"negative profit percentage", "10", "1000", "-0.1", ErrPercentageOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLine(dec(tt.quantity), dec(tt.unitPrice), dec(tt.profitPct))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ComputeLine(%s, %s, %s) error = %v, want %v",
					tt.quantity, tt.unitPrice, tt.profitPct, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePercentageBounds(t *testing.T) {
	if err := ValidatePercentage(dec("0")); err != nil {
		t.Errorf("0 should be a valid percentage, got %v", err)
	}
	if err := ValidatePercentage(dec("1")); err != nil {
		t.Errorf("1 should be a valid percentage, got %v", err)
	}
	if err := ValidatePercentage(dec("1.0001")); err == nil {
		t.Error("expected error for percentage above 1")
	}
}
