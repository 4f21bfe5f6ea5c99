package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func scenarioPercentages() Percentages {
	return Percentages{
		CommercialManagement: dec("0.05"),
		Administration:       dec("0.03"),
		Contingency:          dec("0.02"),
		Profit:               dec("0.15"),
		ProfitIVA:            dec("0.19"),
		Withholding:          dec("0.025"),
	}
}

func TestAggregateEmptyLines(t *testing.T) {
	b := Aggregate(nil, scenarioPercentages())

	fields := map[string]decimal.Decimal{
		"subtotal":                     b.Subtotal,
		"commercial_management_amount": b.CommercialManagementAmount,
		"subtotal2":                    b.Subtotal2,
		"administration_amount":        b.AdministrationAmount,
		"contingency_amount":           b.ContingencyAmount,
		"profit_amount":                b.ProfitAmount,
		"profit_iva_amount":            b.ProfitIVAAmount,
		"subtotal3":                    b.Subtotal3,
		"withholding_amount":           b.WithholdingAmount,
		"total_value":                  b.TotalValue,
	}
	for name, v := range fields {
		if !v.IsZero() {
			t.Errorf("%s = %s, want 0 for an empty line set", name, v)
		}
	}
}

func TestAggregateCommercialManagementStep(t *testing.T) {
	// One line summing to 12500 with commercial_management = 5%.
	lines := []LineTotals{{TotalValue: dec("12500")}}
	p := Percentages{CommercialManagement: dec("0.05"), ProfitIVA: dec("0.19")}

	b := Aggregate(lines, p)

	if !b.Subtotal.Equal(dec("12500")) {
		t.Errorf("subtotal = %s, want 12500", b.Subtotal)
	}
	if !b.CommercialManagementAmount.Equal(dec("625")) {
		t.Errorf("commercial_management_amount = %s, want 625", b.CommercialManagementAmount)
	}
	if !b.Subtotal2.Equal(dec("13125")) {
		t.Errorf("subtotal2 = %s, want 13125", b.Subtotal2)
	}
}

func TestAggregateFullCascade(t *testing.T) {
	line, err := ComputeLine(dec("10"), dec("1000"), dec("0.25"))
	if err != nil {
		t.Fatalf("ComputeLine error: %v", err)
	}
	if !line.TotalValue.Equal(dec("12500")) {
		t.Fatalf("line total_value = %s, want 12500", line.TotalValue)
	}

	b := Aggregate([]LineTotals{line}, scenarioPercentages())

	expect := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"subtotal":                     {b.Subtotal, "12500"},
		"commercial_management_amount": {b.CommercialManagementAmount, "625"},
		"subtotal2":                    {b.Subtotal2, "13125"},
		"administration_amount":        {b.AdministrationAmount, "393.75"},
		"contingency_amount":           {b.ContingencyAmount, "262.5"},
		"profit_amount":                {b.ProfitAmount, "1968.75"},
		"profit_iva_amount":            {b.ProfitIVAAmount, "374.0625"},
		"subtotal3":                    {b.Subtotal3, "16124.0625"},
		"withholding_amount":           {b.WithholdingAmount, "403.1015625"},
		"total_value":                  {b.TotalValue, "16527.1640625"},
	}
	for name, e := range expect {
		if !e.got.Equal(dec(e.want)) {
			t.Errorf("%s = %s, want %s", name, e.got, e.want)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	lines := []LineTotals{
		{TotalValue: dec("12500")},
		{TotalValue: dec("731.4142")},
	}
	p := scenarioPercentages()

	first := Aggregate(lines, p)
	second := Aggregate(lines, p)

	if !first.Equal(second) {
		t.Errorf("repeated aggregation drifted: first total %s, second total %s",
			first.TotalValue, second.TotalValue)
	}
}

func TestAggregateMonotonicInEachPercentage(t *testing.T) {
	lines := []LineTotals{{TotalValue: dec("12500")}}
	base := scenarioPercentages()
	baseTotal := Aggregate(lines, base).TotalValue

	bump := dec("0.10")
	variants := map[string]Percentages{
		"commercial_management": {CommercialManagement: base.CommercialManagement.Add(bump), Administration: base.Administration, Contingency: base.Contingency, Profit: base.Profit, ProfitIVA: base.ProfitIVA, Withholding: base.Withholding},
		"administration":        {CommercialManagement: base.CommercialManagement, Administration: base.Administration.Add(bump), Contingency: base.Contingency, Profit: base.Profit, ProfitIVA: base.ProfitIVA, Withholding: base.Withholding},
		"contingency":           {CommercialManagement: base.CommercialManagement, Administration: base.Administration, Contingency: base.Contingency.Add(bump), Profit: base.Profit, ProfitIVA: base.ProfitIVA, Withholding: base.Withholding},
		"profit":                {CommercialManagement: base.CommercialManagement, Administration: base.Administration, Contingency: base.Contingency, Profit: base.Profit.Add(bump), ProfitIVA: base.ProfitIVA, Withholding: base.Withholding},
		"profit_iva":            {CommercialManagement: base.CommercialManagement, Administration: base.Administration, Contingency: base.Contingency, Profit: base.Profit, ProfitIVA: base.ProfitIVA.Add(bump), Withholding: base.Withholding},
		"withholding":           {CommercialManagement: base.CommercialManagement, Administration: base.Administration, Contingency: base.Contingency, Profit: base.Profit, ProfitIVA: base.ProfitIVA, Withholding: base.Withholding.Add(bump)},
	}

	for name, p := range variants {
		if got := Aggregate(lines, p).TotalValue; got.LessThan(baseTotal) {
			t.Errorf("raising %s lowered total_value: %s < %s", name, got, baseTotal)
		}
	}
}

func TestPercentagesValidate(t *testing.T) {
	p := scenarioPercentages()
	if err := p.Validate(); err != nil {
		t.Fatalf("valid percentages rejected: %v", err)
	}

	p.Withholding = dec("1.5")
	if err := p.Validate(); err == nil {
		t.Error("expected error for withholding above 1")
	}
}

func TestDefaultPercentagesAreValid(t *testing.T) {
	p := DefaultPercentages()
	if err := p.Validate(); err != nil {
		t.Fatalf("default percentages invalid: %v", err)
	}
	if !p.ProfitIVA.Equal(dec("0.19")) {
		t.Errorf("default profit_iva = %s, want 0.19", p.ProfitIVA)
	}
}
