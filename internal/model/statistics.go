package model

import (
	"time"

	"github.com/google/uuid"
)

// DashboardSummary aggregates the quotation pipeline and project economics
type DashboardSummary struct {
	QuotationCounts    map[string]int    `json:"quotation_counts"` // status -> count
	QuotationValues    map[string]string `json:"quotation_values"` // status -> summed total_value
	TotalContracted    string            `json:"total_contracted"` // sum of project contract values
	TotalInvoiced      string            `json:"total_invoiced"`   // sum of approved invoice totals
	TotalExpenses      string            `json:"total_expenses"`   // sum of project expenses
	ActiveProjects     int               `json:"active_projects"`
	TopProducts        []ProductRanking  `json:"top_products"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}

// ProductRanking ranks catalog products by how often they appear on
// quotations in a period.
type ProductRanking struct {
	ProductID     uuid.UUID `gorm:"column:product_id" json:"product_id"`
	ProductName   string    `gorm:"column:product_name" json:"product_name"`
	ProductSKU    string    `gorm:"column:product_sku" json:"product_sku"`
	TotalQuantity int       `gorm:"column:total_quantity" json:"total_quantity"`
	TotalValue    string    `gorm:"column:total_value" json:"total_value"`
}
