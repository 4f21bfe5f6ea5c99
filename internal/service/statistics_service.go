package service

import (
	"context"
	"fmt"
	"time"

	"solardash/internal/model"
	"solardash/internal/repository"
)

type StatisticsService interface {
	GetDashboardSummary(ctx context.Context, startDate, endDate time.Time) (model.DashboardSummary, error)
}

type statisticsService struct {
	statsRepo   repository.StatisticsRepository
	projectRepo repository.ProjectRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository, projectRepo repository.ProjectRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo, projectRepo: projectRepo}
}

// GetDashboardSummary aggregates the quotation pipeline and project
// economics for the dashboard landing page.
func (s *statisticsService) GetDashboardSummary(ctx context.Context, startDate, endDate time.Time) (model.DashboardSummary, error) {
	summary := model.DashboardSummary{
		QuotationCounts:    make(map[string]int),
		QuotationValues:    make(map[string]string),
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	rows, err := s.statsRepo.GetQuotationStatistics(ctx, startDate, endDate)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	for _, row := range rows {
		summary.QuotationCounts[row.Status] = row.Count
		summary.QuotationValues[row.Status] = row.TotalValue
	}

	if summary.TotalContracted, err = s.statsRepo.GetContractedTotal(ctx, startDate, endDate); err != nil {
		return model.DashboardSummary{}, err
	}
	if summary.TotalInvoiced, err = s.statsRepo.GetInvoicedTotal(ctx, startDate, endDate); err != nil {
		return model.DashboardSummary{}, err
	}
	if summary.TotalExpenses, err = s.statsRepo.GetExpenseTotal(ctx, startDate, endDate); err != nil {
		return model.DashboardSummary{}, err
	}

	active, err := s.projectRepo.CountByStatus(ctx, model.ProjectStatusInProgress)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("failed to count active projects: %w", err)
	}
	summary.ActiveProjects = int(active)

	if summary.TopProducts, err = s.statsRepo.GetTopProducts(ctx, startDate, endDate, 5); err != nil {
		return model.DashboardSummary{}, err
	}

	return summary, nil
}
