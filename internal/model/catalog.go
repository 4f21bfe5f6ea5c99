package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType enum constants
const (
	ProductTypePanel    = "PANEL"
	ProductTypeInverter = "INVERTER"
	ProductTypeBattery  = "BATTERY"
)

// Product represents a catalog entry (panel, inverter or battery).
// SystemType and GridType are set for inverters and drive the
// substitution-candidate filtering; panels leave both empty, batteries
// leave GridType empty.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	ProductType string          `gorm:"type:varchar(20);not null;index" json:"product_type"` // PANEL, INVERTER, BATTERY
	Brand       string          `gorm:"type:varchar(100)" json:"brand"`
	PowerW      int             `gorm:"type:int;default:0" json:"power_w"`
	SystemType  string          `gorm:"type:varchar(20);index" json:"system_type"` // ON_GRID, OFF_GRID, HYBRID (inverters)
	GridType    string          `gorm:"type:varchar(20)" json:"grid_type"`         // MONOPHASIC, TRIPHASIC (inverters)
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	SupplierID  *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
