package session

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solardash/internal/pricing"
)

// SavePayload is the outbound persistence contract: when any line has
// changed the payload carries every line with its derived fields plus
// all nine breakdown aggregates, never a partial update. Percentages
// travel as decimals in [0,1].
type SavePayload struct {
	QuotationID uuid.UUID       `json:"quotation_id"`
	ProjectName string          `json:"project_name"`
	SystemType  string          `json:"system_type"`
	GridType    string          `json:"grid_type"`
	PowerKWP    decimal.Decimal `json:"power_kwp"`
	PanelCount  int             `json:"panel_count"`

	ProductLines []ProductLinePayload `json:"product_lines"`
	ItemLines    []ItemLinePayload    `json:"item_lines"`
	Percentages  PercentagesPayload   `json:"percentages"`
	Breakdown    BreakdownPayload     `json:"breakdown"`
}

type ProductLinePayload struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductType      string          `json:"product_type"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	PartialValue     decimal.Decimal `json:"partial_value"`
	Profit           decimal.Decimal `json:"profit"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

type ItemLinePayload struct {
	ID               uuid.UUID       `json:"id"`
	Description      string          `json:"description"`
	ItemType         string          `json:"item_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	PartialValue     decimal.Decimal `json:"partial_value"`
	Profit           decimal.Decimal `json:"profit"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

type PercentagesPayload struct {
	CommercialManagement decimal.Decimal `json:"commercial_management"`
	Administration       decimal.Decimal `json:"administration"`
	Contingency          decimal.Decimal `json:"contingency"`
	Profit               decimal.Decimal `json:"profit"`
	ProfitIVA            decimal.Decimal `json:"profit_iva"`
	Withholding          decimal.Decimal `json:"withholding"`
}

type BreakdownPayload struct {
	Subtotal                   decimal.Decimal `json:"subtotal"`
	CommercialManagementAmount decimal.Decimal `json:"commercial_management_amount"`
	Subtotal2                  decimal.Decimal `json:"subtotal2"`
	AdministrationAmount       decimal.Decimal `json:"administration_amount"`
	ContingencyAmount          decimal.Decimal `json:"contingency_amount"`
	ProfitAmount               decimal.Decimal `json:"profit_amount"`
	ProfitIVAAmount            decimal.Decimal `json:"profit_iva_amount"`
	Subtotal3                  decimal.Decimal `json:"subtotal3"`
	WithholdingAmount          decimal.Decimal `json:"withholding_amount"`
	TotalValue                 decimal.Decimal `json:"total_value"`
}

// BuildSavePayload serializes a working snapshot into the full outbound
// payload.
func BuildSavePayload(s Snapshot) SavePayload {
	p := SavePayload{
		QuotationID: s.QuotationID,
		ProjectName: s.ProjectName,
		SystemType:  s.SystemType,
		GridType:    s.GridType,
		PowerKWP:    s.PowerKWP,
		PanelCount:  s.PanelCount,
		Percentages: PercentagesPayload{
			CommercialManagement: s.Percentages.CommercialManagement,
			Administration:       s.Percentages.Administration,
			Contingency:          s.Percentages.Contingency,
			Profit:               s.Percentages.Profit,
			ProfitIVA:            s.Percentages.ProfitIVA,
			Withholding:          s.Percentages.Withholding,
		},
		Breakdown: BreakdownPayload{
			Subtotal:                   s.Breakdown.Subtotal,
			CommercialManagementAmount: s.Breakdown.CommercialManagementAmount,
			Subtotal2:                  s.Breakdown.Subtotal2,
			AdministrationAmount:       s.Breakdown.AdministrationAmount,
			ContingencyAmount:          s.Breakdown.ContingencyAmount,
			ProfitAmount:               s.Breakdown.ProfitAmount,
			ProfitIVAAmount:            s.Breakdown.ProfitIVAAmount,
			Subtotal3:                  s.Breakdown.Subtotal3,
			WithholdingAmount:          s.Breakdown.WithholdingAmount,
			TotalValue:                 s.Breakdown.TotalValue,
		},
	}

	p.ProductLines = make([]ProductLinePayload, 0, len(s.ProductLines))
	for _, l := range s.ProductLines {
		p.ProductLines = append(p.ProductLines, ProductLinePayload{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductType:      l.ProductType,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
			PartialValue:     l.Totals.PartialValue,
			Profit:           l.Totals.Profit,
			TotalValue:       l.Totals.TotalValue,
		})
	}
	p.ItemLines = make([]ItemLinePayload, 0, len(s.ItemLines))
	for _, l := range s.ItemLines {
		p.ItemLines = append(p.ItemLines, ItemLinePayload{
			ID:               l.ID,
			Description:      l.Description,
			ItemType:         l.ItemType,
			Quantity:         l.Quantity,
			Unit:             l.Unit,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
			PartialValue:     l.Totals.PartialValue,
			Profit:           l.Totals.Profit,
			TotalValue:       l.Totals.TotalValue,
		})
	}
	return p
}

// PayloadSnapshot rebuilds a snapshot from a payload's raw fields. The
// store uses it to recompute the breakdown independently before
// accepting the submitted derived values.
func PayloadSnapshot(p SavePayload) Snapshot {
	s := Snapshot{
		QuotationID: p.QuotationID,
		ProjectName: p.ProjectName,
		SystemType:  p.SystemType,
		GridType:    p.GridType,
		PowerKWP:    p.PowerKWP,
		PanelCount:  p.PanelCount,
		Percentages: pricing.Percentages{
			CommercialManagement: p.Percentages.CommercialManagement,
			Administration:       p.Percentages.Administration,
			Contingency:          p.Percentages.Contingency,
			Profit:               p.Percentages.Profit,
			ProfitIVA:            p.Percentages.ProfitIVA,
			Withholding:          p.Percentages.Withholding,
		},
	}
	for _, l := range p.ProductLines {
		s.ProductLines = append(s.ProductLines, ProductLine{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductType:      l.ProductType,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
		})
	}
	for _, l := range p.ItemLines {
		s.ItemLines = append(s.ItemLines, ItemLine{
			ID:               l.ID,
			Description:      l.Description,
			ItemType:         l.ItemType,
			Quantity:         l.Quantity,
			Unit:             l.Unit,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
		})
	}
	return s
}

// SubmittedBreakdown lifts the payload's breakdown into the engine type
// for comparison against a recomputation.
func SubmittedBreakdown(p SavePayload) pricing.Breakdown {
	return pricing.Breakdown{
		Subtotal:                   p.Breakdown.Subtotal,
		CommercialManagementAmount: p.Breakdown.CommercialManagementAmount,
		Subtotal2:                  p.Breakdown.Subtotal2,
		AdministrationAmount:       p.Breakdown.AdministrationAmount,
		ContingencyAmount:          p.Breakdown.ContingencyAmount,
		ProfitAmount:               p.Breakdown.ProfitAmount,
		ProfitIVAAmount:            p.Breakdown.ProfitIVAAmount,
		Subtotal3:                  p.Breakdown.Subtotal3,
		WithholdingAmount:          p.Breakdown.WithholdingAmount,
		TotalValue:                 p.Breakdown.TotalValue,
	}
}
