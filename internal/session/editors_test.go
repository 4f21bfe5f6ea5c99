package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solardash/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testSnapshot builds an on-grid quotation with one panel line
// (10 x 1000 at 25% profit) and one labor line, derived fields filled.
func testSnapshot(t *testing.T) Snapshot {
	t.Helper()
	s := Snapshot{
		QuotationID: uuid.New(),
		ProjectName: "Finca El Roble",
		SystemType:  model.SystemTypeOnGrid,
		GridType:    model.GridTypeTriphasic,
		PowerKWP:    dec("5.5"),
		PanelCount:  10,
		ProductLines: []ProductLine{{
			ID:               uuid.New(),
			ProductID:        uuid.New(),
			ProductType:      model.ProductTypePanel,
			Quantity:         10,
			UnitPrice:        dec("1000"),
			ProfitPercentage: dec("0.25"),
		}},
		ItemLines: []ItemLine{{
			ID:               uuid.New(),
			Description:      "Installation labor",
			ItemType:         model.ItemTypeLabor,
			Quantity:         dec("16"),
			Unit:             "hour",
			UnitPrice:        dec("45"),
			ProfitPercentage: dec("0.1"),
		}},
	}
	s.Percentages.ProfitIVA = dec("0.19")

	out, err := s.Recompute()
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	return out
}

func expectFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fe.Field != field {
		t.Errorf("error field = %q, want %q", fe.Field, field)
	}
}

func TestEditProductLineQuantityRecomputes(t *testing.T) {
	s := testSnapshot(t)
	lineID := s.ProductLines[0].ID

	next, err := EditProductLineField(s, lineID, LineFieldQuantity, "12")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	line := next.ProductLines[0]
	if line.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", line.Quantity)
	}
	if !line.Totals.PartialValue.Equal(dec("12000")) {
		t.Errorf("partial_value = %s, want 12000", line.Totals.PartialValue)
	}
	if !line.Totals.TotalValue.Equal(dec("15000")) {
		t.Errorf("total_value = %s, want 15000", line.Totals.TotalValue)
	}
	// The breakdown follows the line change: 15000 + labor line 792.
	if !next.Breakdown.Subtotal.Equal(dec("15792")) {
		t.Errorf("subtotal = %s, want 15792", next.Breakdown.Subtotal)
	}
}

func TestEditProductLineQuantityToZeroRejected(t *testing.T) {
	s := testSnapshot(t)
	before := s.Breakdown

	_, err := EditProductLineField(s, s.ProductLines[0].ID, LineFieldQuantity, "0")
	expectFieldError(t, err, LineFieldQuantity)

	// The input snapshot is untouched by the rejected edit.
	if s.ProductLines[0].Quantity != 10 {
		t.Errorf("quantity mutated to %d by a rejected edit", s.ProductLines[0].Quantity)
	}
	if !s.Breakdown.Equal(before) {
		t.Error("breakdown mutated by a rejected edit")
	}
}

func TestEditLineFieldValidation(t *testing.T) {
	s := testSnapshot(t)
	productID := s.ProductLines[0].ID
	itemID := s.ItemLines[0].ID

	tests := []struct {
		name  string
		edit  func() (Snapshot, error)
		field string
	}{
		{"negative product price", func() (Snapshot, error) {
			return EditProductLineField(s, productID, LineFieldUnitPrice, "-5")
		}, LineFieldUnitPrice},
		{"product profit above one", func() (Snapshot, error) {
			return EditProductLineField(s, productID, LineFieldProfitPercentage, "1.2")
		}, LineFieldProfitPercentage},
		{"garbage quantity", func() (Snapshot, error) {
			return EditProductLineField(s, productID, LineFieldQuantity, "ten")
		}, LineFieldQuantity},
		{"item quantity zero", func() (Snapshot, error) {
			return EditItemLineField(s, itemID, LineFieldQuantity, "0")
		}, LineFieldQuantity},
		{"item negative price", func() (Snapshot, error) {
			return EditItemLineField(s, itemID, LineFieldUnitPrice, "-0.01")
		}, LineFieldUnitPrice},
		{"unknown field", func() (Snapshot, error) {
			return EditProductLineField(s, productID, "color", "blue")
		}, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.edit()
			expectFieldError(t, err, tt.field)
		})
	}
}

func TestEditItemLineFractionalQuantity(t *testing.T) {
	s := testSnapshot(t)

	next, err := EditItemLineField(s, s.ItemLines[0].ID, LineFieldQuantity, "2.5")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !next.ItemLines[0].Totals.PartialValue.Equal(dec("112.5")) {
		t.Errorf("partial_value = %s, want 112.5", next.ItemLines[0].Totals.PartialValue)
	}
}

func TestEditPercentageConvertsFromHundredScale(t *testing.T) {
	s := testSnapshot(t)

	next, err := EditPercentage(s, PctFieldCommercialManagement, "5")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !next.Percentages.CommercialManagement.Equal(dec("0.05")) {
		t.Errorf("stored percentage = %s, want 0.05", next.Percentages.CommercialManagement)
	}
	// subtotal 12500 + 792 = 13292; cm = 664.6
	if !next.Breakdown.CommercialManagementAmount.Equal(dec("664.6")) {
		t.Errorf("commercial_management_amount = %s, want 664.6", next.Breakdown.CommercialManagementAmount)
	}
}

func TestEditPercentageOutOfRangeRejected(t *testing.T) {
	s := testSnapshot(t)

	for _, raw := range []string{"-1", "100.5", "abc"} {
		if _, err := EditPercentage(s, PctFieldProfit, raw); err == nil {
			t.Errorf("EditPercentage(%q) accepted, want rejection", raw)
		}
	}
}

func TestBatteryOnGridRejected(t *testing.T) {
	s := testSnapshot(t)
	battery := CatalogProduct{
		ID:          uuid.New(),
		ProductType: model.ProductTypeBattery,
		UnitPrice:   dec("3200"),
	}

	// Adding a battery to an on-grid quotation is refused outright.
	_, err := AddProductLine(s, battery, 2, dec("0.2"))
	expectFieldError(t, err, "product_ref")

	// So is substituting one in: seed a battery line on a hybrid
	// system, flip a copy to on-grid semantics manually, and attempt
	// the swap.
	s.SystemType = model.SystemTypeHybrid
	withBattery, err := AddProductLine(s, battery, 2, dec("0.2"))
	if err != nil {
		t.Fatalf("battery on hybrid system rejected: %v", err)
	}
	withBattery.SystemType = model.SystemTypeOnGrid
	lineID := withBattery.ProductLines[len(withBattery.ProductLines)-1].ID
	other := CatalogProduct{ID: uuid.New(), ProductType: model.ProductTypeBattery, UnitPrice: dec("2900")}
	_, err = SubstituteProduct(withBattery, lineID, other)
	expectFieldError(t, err, "product_ref")
}

func TestSubstituteInverterFiltering(t *testing.T) {
	s := testSnapshot(t)
	inverterLine := ProductLine{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		ProductType:      model.ProductTypeInverter,
		Quantity:         1,
		UnitPrice:        dec("2000"),
		ProfitPercentage: dec("0.2"),
	}
	s.ProductLines = append(s.ProductLines, inverterLine)
	s, err := s.Recompute()
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	offGrid := CatalogProduct{ID: uuid.New(), ProductType: model.ProductTypeInverter,
		SystemType: model.SystemTypeOffGrid, GridType: model.GridTypeTriphasic, UnitPrice: dec("1800")}
	_, err = SubstituteProduct(s, inverterLine.ID, offGrid)
	expectFieldError(t, err, "product_ref")

	wrongGrid := CatalogProduct{ID: uuid.New(), ProductType: model.ProductTypeInverter,
		SystemType: model.SystemTypeOnGrid, GridType: model.GridTypeMonophasic, UnitPrice: dec("1800")}
	_, err = SubstituteProduct(s, inverterLine.ID, wrongGrid)
	expectFieldError(t, err, "product_ref")

	match := CatalogProduct{ID: uuid.New(), ProductType: model.ProductTypeInverter,
		SystemType: model.SystemTypeOnGrid, GridType: model.GridTypeTriphasic, UnitPrice: dec("1800")}
	next, err := SubstituteProduct(s, inverterLine.ID, match)
	if err != nil {
		t.Fatalf("matching inverter rejected: %v", err)
	}

	idx := next.findProductLine(inverterLine.ID)
	got := next.ProductLines[idx]
	if got.ProductID != match.ID {
		t.Error("product_ref not replaced")
	}
	if got.Quantity != 1 || !got.ProfitPercentage.Equal(dec("0.2")) {
		t.Error("substitution must keep quantity and profit_percentage")
	}
	if !got.UnitPrice.Equal(dec("1800")) {
		t.Errorf("unit_price = %s, want candidate price 1800", got.UnitPrice)
	}
}

func TestEditBasicFieldValidation(t *testing.T) {
	s := testSnapshot(t)

	tests := []struct {
		name  string
		field string
		raw   string
		ok    bool
	}{
		{"valid name", BasicFieldProjectName, "Casa Mira", true},
		{"empty name", BasicFieldProjectName, "  ", false},
		{"valid system type", BasicFieldSystemType, model.SystemTypeHybrid, true},
		{"bogus system type", BasicFieldSystemType, "SPACE", false},
		{"power above floor", BasicFieldPowerKWP, "0.2", true},
		{"power at floor", BasicFieldPowerKWP, "0.1", false},
		{"panel count one", BasicFieldPanelCount, "1", true},
		{"panel count zero", BasicFieldPanelCount, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := EditBasicField(s, tt.field, tt.raw)
			if tt.ok && err != nil {
				t.Fatalf("edit rejected: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected rejection")
			}
			if tt.ok && !next.Breakdown.Equal(s.Breakdown) {
				t.Error("basic field edit changed the monetary breakdown")
			}
		})
	}
}

func TestSwitchToOnGridWithBatteryRejected(t *testing.T) {
	s := testSnapshot(t)
	s.SystemType = model.SystemTypeHybrid
	s.ProductLines = append(s.ProductLines, ProductLine{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		ProductType:      model.ProductTypeBattery,
		Quantity:         2,
		UnitPrice:        dec("3200"),
		ProfitPercentage: dec("0.2"),
	})
	s, err := s.Recompute()
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	_, err = EditBasicField(s, BasicFieldSystemType, model.SystemTypeOnGrid)
	expectFieldError(t, err, BasicFieldSystemType)
}

func TestRemoveLastLineRejected(t *testing.T) {
	s := testSnapshot(t)

	one, err := RemoveLine(s, s.ItemLines[0].ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if one.LineCount() != 1 {
		t.Fatalf("line count = %d, want 1", one.LineCount())
	}

	if _, err := RemoveLine(one, one.ProductLines[0].ID); err == nil {
		t.Error("removing the last line must be rejected")
	}
}
