package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus enum constants
const (
	ProjectStatusInProgress = "IN_PROGRESS"
	ProjectStatusCompleted  = "COMPLETED"
	ProjectStatusCancelled  = "CANCELLED"
)

// CostCenter enum constants for project expenses
const (
	CostCenterEquipment    = "EQUIPMENT"
	CostCenterInstallation = "INSTALLATION"
	CostCenterLogistics    = "LOGISTICS"
	CostCenterPermits      = "PERMITS"
	CostCenterOther        = "OTHER"
)

// Project is the execution record spawned from an approved quotation.
// ContractValue is frozen from the quotation's total_value at approval
// time and never recomputed afterwards.
type Project struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectCode   string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"project_code"`
	Name          string           `gorm:"type:varchar(200);not null" json:"name"`
	Status        string           `gorm:"type:varchar(20);not null;default:'IN_PROGRESS';index" json:"status"`
	QuotationID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"quotation_id"`
	Quotation     *Quotation       `gorm:"foreignKey:QuotationID" json:"quotation,omitempty"`
	ClientID      *uuid.UUID       `gorm:"type:uuid;index" json:"client_id"`
	Client        *Client          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ContractValue decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"contract_value"`
	Note          string           `gorm:"type:text" json:"note"`
	Expenses      []ProjectExpense `gorm:"foreignKey:ProjectID" json:"expenses,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProjectExpense is an execution cost booked against a project under a
// cost center tag. Expenses track margin, they never feed back into the
// quotation breakdown.
type ProjectExpense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	CostCenter  string          `gorm:"type:varchar(30);not null;index" json:"cost_center"` // EQUIPMENT, INSTALLATION, LOGISTICS, PERMITS, OTHER
	Description string          `gorm:"type:text" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
