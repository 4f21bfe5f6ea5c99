package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SystemType enum constants
const (
	SystemTypeOnGrid  = "ON_GRID"
	SystemTypeOffGrid = "OFF_GRID"
	SystemTypeHybrid  = "HYBRID"
)

// GridType enum constants
const (
	GridTypeMonophasic = "MONOPHASIC"
	GridTypeTriphasic  = "TRIPHASIC"
)

// QuotationStatus enum constants
const (
	QuotationStatusDraft    = "DRAFT"
	QuotationStatusSent     = "SENT"
	QuotationStatusApproved = "APPROVED"
	QuotationStatusRejected = "REJECTED"
)

// ItemLineType enum constants for free-form quotation items
const (
	ItemTypeMaterial = "MATERIAL"
	ItemTypeLabor    = "LABOR"
	ItemTypePermit   = "PERMIT"
)

// Quotation is the priced proposal for a solar installation. The six
// percentage columns and the nine breakdown columns are always stored
// together; the breakdown is derived from the lines and percentages and
// is rejected on write when it does not match a recomputation.
type Quotation struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectName string          `gorm:"type:varchar(200);not null" json:"project_name"`
	ClientID    *uuid.UUID      `gorm:"type:uuid;index" json:"client_id"`
	Client      *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	SystemType  string          `gorm:"type:varchar(20);not null;index" json:"system_type"` // ON_GRID, OFF_GRID, HYBRID
	GridType    string          `gorm:"type:varchar(20);not null" json:"grid_type"`         // MONOPHASIC, TRIPHASIC
	PowerKWP    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"power_kwp"`
	PanelCount  int             `gorm:"type:int;not null" json:"panel_count"`
	Status      string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	// Percentage parameters, decimals in [0,1]
	CommercialManagementPct decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"commercial_management_pct"`
	AdministrationPct       decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"administration_pct"`
	ContingencyPct          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"contingency_pct"`
	ProfitPct               decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"profit_pct"`
	ProfitIVAPct            decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"profit_iva_pct"` // conventionally 0.19
	WithholdingPct          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"withholding_pct"`

	// Monetary breakdown, derived via the cascading formula
	Subtotal                   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	CommercialManagementAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"commercial_management_amount"`
	Subtotal2                  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal2"`
	AdministrationAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"administration_amount"`
	ContingencyAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"contingency_amount"`
	ProfitAmount               decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"profit_amount"`
	ProfitIVAAmount            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"profit_iva_amount"`
	Subtotal3                  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal3"`
	WithholdingAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"withholding_amount"`
	TotalValue                 decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_value"`

	ProductLines []QuotationProductLine `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"product_lines"`
	ItemLines    []QuotationItemLine    `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"item_lines"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// QuotationProductLine is a catalog product priced into a quotation.
// Quantity is a whole unit count; derived columns follow the line formula.
type QuotationProductLine struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product          *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductType      string          `gorm:"type:varchar(20);not null" json:"product_type"` // PANEL, INVERTER, BATTERY
	Quantity         int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	ProfitPercentage decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"profit_percentage"`
	PartialValue     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"partial_value"`
	Profit           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"profit"`
	TotalValue       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_value"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// QuotationItemLine is a free-form priced item (materials, labor,
// permits). Quantity is fractional, measured in Unit.
type QuotationItemLine struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	Description      string          `gorm:"type:varchar(255);not null" json:"description"`
	ItemType         string          `gorm:"type:varchar(20);not null" json:"item_type"` // MATERIAL, LABOR, PERMIT
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit             string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	ProfitPercentage decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"profit_percentage"`
	PartialValue     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"partial_value"`
	Profit           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"profit"`
	TotalValue       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_value"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
