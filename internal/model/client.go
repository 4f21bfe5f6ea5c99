package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientType enum constants
const (
	ClientTypeResidential = "RESIDENTIAL"
	ClientTypeCommercial  = "COMMERCIAL"
	ClientTypeIndustrial  = "INDUSTRIAL"
)

// AddressType enum constants
const (
	AddressTypeBilling      = "BILLING"
	AddressTypeInstallation = "INSTALLATION"
)

// Client represents a customer commissioning solar projects
type Client struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Type          string          `gorm:"type:varchar(20);not null;index" json:"type"` // RESIDENTIAL, COMMERCIAL, INDUSTRIAL
	TaxCode       string          `gorm:"type:varchar(50)" json:"tax_code"`
	CompanyName   string          `gorm:"type:varchar(255)" json:"company_name"`
	ContactPerson string          `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string          `gorm:"type:varchar(50)" json:"phone"`
	Email         string          `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	Addresses     []ClientAddress `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ClientAddress represents a client's address (billing or installation site)
type ClientAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID    uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"` // BILLING, INSTALLATION
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
