package repository

import (
	"context"
	"fmt"

	"solardash/internal/model"

	"gorm.io/gorm"
)

type RevenueDataRow struct {
	Period        string  `gorm:"column:period"`
	TotalInvoiced float64 `gorm:"column:total_invoiced"`
	TotalIVA      float64 `gorm:"column:total_iva"`
	TotalExpense  float64 `gorm:"column:total_expense"`
}

type RevenueRepository interface {
	GetRevenueStatistics(ctx context.Context, groupBy, startDate, endDate string) ([]RevenueDataRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// GetRevenueStatistics aggregates approved invoice totals and project
// expenses per period. Only APPROVED invoices count toward revenue.
func (r *revenueRepository) GetRevenueStatistics(ctx context.Context, groupBy, startDate, endDate string) ([]RevenueDataRow, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, p.period_start), 'YYYY-MM-DD') AS period,
			COALESCE(SUM(p.total_invoiced), 0) AS total_invoiced,
			COALESCE(SUM(p.total_iva), 0) AS total_iva,
			COALESCE(SUM(p.total_expense), 0) AS total_expense
		FROM (
			SELECT
				i.created_at AS period_start,
				i.total_amount AS total_invoiced,
				i.iva_amount AS total_iva,
				0::numeric AS total_expense
			FROM invoices i
			WHERE i.approval_status = $4
			  AND i.created_at >= $2::timestamptz
			  AND i.created_at <= $3::timestamptz
			UNION ALL
			SELECT
				e.created_at AS period_start,
				0::numeric AS total_invoiced,
				0::numeric AS total_iva,
				e.amount AS total_expense
			FROM project_expenses e
			WHERE e.created_at >= $2::timestamptz
			  AND e.created_at <= $3::timestamptz
		) p
		GROUP BY DATE_TRUNC($1, p.period_start)
		ORDER BY period
	`

	var rows []RevenueDataRow
	if err := r.db.WithContext(ctx).Raw(query,
		groupBy, startDate, endDate, model.ApprovalApproved,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}

	return rows, nil
}
