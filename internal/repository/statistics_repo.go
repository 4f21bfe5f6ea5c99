package repository

import (
	"context"
	"fmt"
	"time"

	"solardash/internal/model"

	"gorm.io/gorm"
)

type StatusAggregateRow struct {
	Status     string `gorm:"column:status"`
	Count      int    `gorm:"column:count"`
	TotalValue string `gorm:"column:total_value"`
}

type StatisticsRepository interface {
	GetQuotationStatistics(ctx context.Context, start, end time.Time) ([]StatusAggregateRow, error)
	GetContractedTotal(ctx context.Context, start, end time.Time) (string, error)
	GetInvoicedTotal(ctx context.Context, start, end time.Time) (string, error)
	GetExpenseTotal(ctx context.Context, start, end time.Time) (string, error)
	GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]model.ProductRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetQuotationStatistics(ctx context.Context, start, end time.Time) ([]StatusAggregateRow, error) {
	var rows []StatusAggregateRow
	if err := r.db.WithContext(ctx).Model(&model.Quotation{}).
		Select("status, COUNT(*) as count, COALESCE(CAST(SUM(total_value) AS TEXT), '0') as total_value").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query quotation statistics: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) GetContractedTotal(ctx context.Context, start, end time.Time) (string, error) {
	return r.sumColumn(ctx, &model.Project{}, "contract_value", start, end)
}

func (r *statisticsRepository) GetInvoicedTotal(ctx context.Context, start, end time.Time) (string, error) {
	var result struct {
		Total string
	}
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as total").
		Where("approval_status = ? AND created_at >= ? AND created_at <= ?", model.ApprovalApproved, start, end).
		Scan(&result).Error; err != nil {
		return "", fmt.Errorf("failed to query invoiced total: %w", err)
	}
	return result.Total, nil
}

func (r *statisticsRepository) GetExpenseTotal(ctx context.Context, start, end time.Time) (string, error) {
	return r.sumColumn(ctx, &model.ProjectExpense{}, "amount", start, end)
}

func (r *statisticsRepository) sumColumn(ctx context.Context, table any, column string, start, end time.Time) (string, error) {
	var result struct {
		Total string
	}
	if err := r.db.WithContext(ctx).Model(table).
		Select(fmt.Sprintf("COALESCE(CAST(SUM(%s) AS TEXT), '0') as total", column)).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Scan(&result).Error; err != nil {
		return "", fmt.Errorf("failed to query %s total: %w", column, err)
	}
	return result.Total, nil
}

func (r *statisticsRepository) GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	if err := r.db.WithContext(ctx).Table("quotation_product_lines").
		Select("products.id as product_id, products.name as product_name, products.sku as product_sku, SUM(quotation_product_lines.quantity) as total_quantity, CAST(SUM(quotation_product_lines.total_value) AS TEXT) as total_value").
		Joins("JOIN products ON products.id = quotation_product_lines.product_id").
		Joins("JOIN quotations ON quotations.id = quotation_product_lines.quotation_id").
		Where("quotations.created_at >= ? AND quotations.created_at <= ?", start, end).
		Group("products.id, products.name, products.sku").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}
