package session

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solardash/internal/model"
)

// Editable line fields
const (
	LineFieldQuantity         = "quantity"
	LineFieldUnitPrice        = "unit_price"
	LineFieldProfitPercentage = "profit_percentage"
)

// Aggregate percentage fields
const (
	PctFieldCommercialManagement = "commercial_management"
	PctFieldAdministration       = "administration"
	PctFieldContingency          = "contingency"
	PctFieldProfit               = "profit"
	PctFieldProfitIVA            = "profit_iva"
	PctFieldWithholding          = "withholding"
)

// Basic quotation fields
const (
	BasicFieldProjectName = "project_name"
	BasicFieldSystemType  = "system_type"
	BasicFieldGridType    = "grid_type"
	BasicFieldPowerKWP    = "power_kwp"
	BasicFieldPanelCount  = "panel_count"
)

// CatalogProduct is the slice of a catalog entry the editors need for
// substitution checks.
type CatalogProduct struct {
	ID          uuid.UUID
	ProductType string
	SystemType  string
	GridType    string
	UnitPrice   decimal.Decimal
}

var validSystemTypes = map[string]bool{
	model.SystemTypeOnGrid:  true,
	model.SystemTypeOffGrid: true,
	model.SystemTypeHybrid:  true,
}

var validGridTypes = map[string]bool{
	model.GridTypeMonophasic: true,
	model.GridTypeTriphasic:  true,
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fieldErr(field, "not a valid number")
	}
	return d, nil
}

// EditProductLineField applies a single-field edit to one product line.
// The raw value is validated against the line bounds before anything is
// touched; on success the line and the whole breakdown are recomputed.
func EditProductLineField(s Snapshot, lineID uuid.UUID, field, raw string) (Snapshot, error) {
	idx := s.findProductLine(lineID)
	if idx < 0 {
		return Snapshot{}, fieldErr(field, "product line not found")
	}

	out := s.Clone()
	switch field {
	case LineFieldQuantity:
		qty, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Snapshot{}, fieldErr(field, "not a valid whole number")
		}
		if qty <= 0 {
			return Snapshot{}, fieldErr(field, "quantity must be greater than zero")
		}
		out.ProductLines[idx].Quantity = qty
	case LineFieldUnitPrice:
		price, err := parseDecimal(field, raw)
		if err != nil {
			return Snapshot{}, err
		}
		if price.IsNegative() {
			return Snapshot{}, fieldErr(field, "unit_price must not be negative")
		}
		out.ProductLines[idx].UnitPrice = price
	case LineFieldProfitPercentage:
		pct, err := parseDecimal(field, raw)
		if err != nil {
			return Snapshot{}, err
		}
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
			return Snapshot{}, fieldErr(field, "profit_percentage must be between 0 and 1")
		}
		out.ProductLines[idx].ProfitPercentage = pct
	default:
		return Snapshot{}, fieldErr(field, "unknown line field")
	}

	return out.Recompute()
}

// EditItemLineField is the item-line counterpart of EditProductLineField.
// Item quantities are fractional.
func EditItemLineField(s Snapshot, lineID uuid.UUID, field, raw string) (Snapshot, error) {
	idx := s.findItemLine(lineID)
	if idx < 0 {
		return Snapshot{}, fieldErr(field, "item line not found")
	}

	out := s.Clone()
	switch field {
	case LineFieldQuantity:
		qty, err := parseDecimal(field, raw)
		if err != nil {
			return Snapshot{}, err
		}
		if !qty.IsPositive() {
			return Snapshot{}, fieldErr(field, "quantity must be greater than zero")
		}
		out.ItemLines[idx].Quantity = qty
	case LineFieldUnitPrice:
		price, err := parseDecimal(field, raw)
		if err != nil {
			return Snapshot{}, err
		}
		if price.IsNegative() {
			return Snapshot{}, fieldErr(field, "unit_price must not be negative")
		}
		out.ItemLines[idx].UnitPrice = price
	case LineFieldProfitPercentage:
		pct, err := parseDecimal(field, raw)
		if err != nil {
			return Snapshot{}, err
		}
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
			return Snapshot{}, fieldErr(field, "profit_percentage must be between 0 and 1")
		}
		out.ItemLines[idx].ProfitPercentage = pct
	default:
		return Snapshot{}, fieldErr(field, "unknown line field")
	}

	return out.Recompute()
}

// EditPercentage applies an aggregate percentage edit. Users type a
// 0-100 value; it is range-checked on that scale and stored divided by
// 100, then the breakdown is re-aggregated.
func EditPercentage(s Snapshot, field, raw string) (Snapshot, error) {
	entered, err := parseDecimal(field, raw)
	if err != nil {
		return Snapshot{}, err
	}
	if entered.IsNegative() || entered.GreaterThan(decimal.NewFromInt(100)) {
		return Snapshot{}, fieldErr(field, "percentage must be between 0 and 100")
	}
	stored := entered.Div(decimal.NewFromInt(100))

	out := s.Clone()
	switch field {
	case PctFieldCommercialManagement:
		out.Percentages.CommercialManagement = stored
	case PctFieldAdministration:
		out.Percentages.Administration = stored
	case PctFieldContingency:
		out.Percentages.Contingency = stored
	case PctFieldProfit:
		out.Percentages.Profit = stored
	case PctFieldProfitIVA:
		out.Percentages.ProfitIVA = stored
	case PctFieldWithholding:
		out.Percentages.Withholding = stored
	default:
		return Snapshot{}, fieldErr(field, "unknown percentage field")
	}

	return out.Recompute()
}

// SubstituteProduct swaps a product line onto another catalog product,
// keeping quantity and profit percentage. Candidates are constrained by
// the quotation: inverters must match its system and grid type, and a
// battery is never allowed on an on-grid system.
func SubstituteProduct(s Snapshot, lineID uuid.UUID, candidate CatalogProduct) (Snapshot, error) {
	idx := s.findProductLine(lineID)
	if idx < 0 {
		return Snapshot{}, fieldErr("product_ref", "product line not found")
	}

	line := s.ProductLines[idx]
	if candidate.ProductType != line.ProductType {
		return Snapshot{}, fieldErr("product_ref", "substitute must be of the same product type")
	}
	if candidate.ProductType == model.ProductTypeBattery && s.SystemType == model.SystemTypeOnGrid {
		return Snapshot{}, fieldErr("product_ref", "batteries are not allowed on on-grid systems")
	}
	if candidate.ProductType == model.ProductTypeInverter {
		if candidate.SystemType != s.SystemType {
			return Snapshot{}, fieldErr("product_ref", "inverter system type does not match the quotation")
		}
		if candidate.GridType != s.GridType {
			return Snapshot{}, fieldErr("product_ref", "inverter grid type does not match the quotation")
		}
	}

	out := s.Clone()
	out.ProductLines[idx].ProductID = candidate.ID
	out.ProductLines[idx].UnitPrice = candidate.UnitPrice
	return out.Recompute()
}

// EditBasicField edits a non-monetary quotation field. These do not
// change the breakdown, except that switching to an on-grid system is
// refused while a battery line exists.
func EditBasicField(s Snapshot, field, raw string) (Snapshot, error) {
	out := s.Clone()
	value := strings.TrimSpace(raw)

	switch field {
	case BasicFieldProjectName:
		if value == "" {
			return Snapshot{}, fieldErr(field, "project name must not be empty")
		}
		if len(value) > 200 {
			return Snapshot{}, fieldErr(field, "project name must be at most 200 characters")
		}
		out.ProjectName = value
	case BasicFieldSystemType:
		if !validSystemTypes[value] {
			return Snapshot{}, fieldErr(field, "system type must be one of: ON_GRID, OFF_GRID, HYBRID")
		}
		if value == model.SystemTypeOnGrid {
			for _, l := range s.ProductLines {
				if l.ProductType == model.ProductTypeBattery {
					return Snapshot{}, fieldErr(field, "remove battery lines before switching to an on-grid system")
				}
			}
		}
		out.SystemType = value
	case BasicFieldGridType:
		if !validGridTypes[value] {
			return Snapshot{}, fieldErr(field, "grid type must be one of: MONOPHASIC, TRIPHASIC")
		}
		out.GridType = value
	case BasicFieldPowerKWP:
		power, err := parseDecimal(field, raw)
		if err != nil {
			return Snapshot{}, err
		}
		if power.LessThanOrEqual(decimal.NewFromFloat(0.1)) {
			return Snapshot{}, fieldErr(field, "power must be greater than 0.1 kWp")
		}
		out.PowerKWP = power
	case BasicFieldPanelCount:
		count, err := strconv.Atoi(value)
		if err != nil {
			return Snapshot{}, fieldErr(field, "not a valid whole number")
		}
		if count < 1 {
			return Snapshot{}, fieldErr(field, "panel count must be at least 1")
		}
		out.PanelCount = count
	default:
		return Snapshot{}, fieldErr(field, "unknown quotation field")
	}

	return out, nil
}

// AddProductLine prices a catalog product into the quotation. The
// on-grid battery exclusion applies here as well.
func AddProductLine(s Snapshot, candidate CatalogProduct, quantity int, profitPercentage decimal.Decimal) (Snapshot, error) {
	if quantity <= 0 {
		return Snapshot{}, fieldErr(LineFieldQuantity, "quantity must be greater than zero")
	}
	if candidate.ProductType == model.ProductTypeBattery && s.SystemType == model.SystemTypeOnGrid {
		return Snapshot{}, fieldErr("product_ref", "batteries are not allowed on on-grid systems")
	}
	if candidate.ProductType == model.ProductTypeInverter {
		if candidate.SystemType != s.SystemType {
			return Snapshot{}, fieldErr("product_ref", "inverter system type does not match the quotation")
		}
		if candidate.GridType != s.GridType {
			return Snapshot{}, fieldErr("product_ref", "inverter grid type does not match the quotation")
		}
	}

	out := s.Clone()
	out.ProductLines = append(out.ProductLines, ProductLine{
		ID:               uuid.New(),
		ProductID:        candidate.ID,
		ProductType:      candidate.ProductType,
		Quantity:         quantity,
		UnitPrice:        candidate.UnitPrice,
		ProfitPercentage: profitPercentage,
	})
	return out.Recompute()
}

// AddItemLine appends a free-form line.
func AddItemLine(s Snapshot, description, itemType, unit string, quantity, unitPrice, profitPercentage decimal.Decimal) (Snapshot, error) {
	if strings.TrimSpace(description) == "" {
		return Snapshot{}, fieldErr("description", "description must not be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return Snapshot{}, fieldErr("unit", "unit must not be empty")
	}

	out := s.Clone()
	out.ItemLines = append(out.ItemLines, ItemLine{
		ID:               uuid.New(),
		Description:      strings.TrimSpace(description),
		ItemType:         itemType,
		Quantity:         quantity,
		Unit:             unit,
		UnitPrice:        unitPrice,
		ProfitPercentage: profitPercentage,
	})
	return out.Recompute()
}

// RemoveLine drops a line of either kind. The last remaining line of a
// quotation cannot be removed.
func RemoveLine(s Snapshot, lineID uuid.UUID) (Snapshot, error) {
	if s.LineCount() <= 1 {
		return Snapshot{}, fieldErr("lines", "a quotation needs at least one line")
	}

	out := s.Clone()
	if idx := out.findProductLine(lineID); idx >= 0 {
		out.ProductLines = append(out.ProductLines[:idx], out.ProductLines[idx+1:]...)
		return out.Recompute()
	}
	if idx := out.findItemLine(lineID); idx >= 0 {
		out.ItemLines = append(out.ItemLines[:idx], out.ItemLines[idx+1:]...)
		return out.Recompute()
	}
	return Snapshot{}, fieldErr("lines", "line not found")
}
