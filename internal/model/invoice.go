package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalStatus enum constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Invoice bills part of a project's contract value to the client.
// Only APPROVED invoices count toward revenue statistics.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	ProjectID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project        *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	IVARate        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"iva_rate"`
	IVAAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"iva_amount"` // subtotal * iva_rate
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`         // subtotal + iva_amount
	ApprovalStatus string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"approval_status"`
	ApprovedBy     *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver       *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	Note           string          `gorm:"type:text" json:"note"`

	// Client hard-copy fields, frozen at issue time
	ClientID       *uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	CompanyName    string     `gorm:"type:varchar(255)" json:"company_name"`
	TaxCode        string     `gorm:"type:varchar(50)" json:"tax_code"`
	BillingAddress string     `gorm:"type:text" json:"billing_address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
