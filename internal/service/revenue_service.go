package service

import (
	"context"
	"fmt"

	"solardash/internal/repository"
)

// --- DTOs ---

type RevenueDataPoint struct {
	Period        string `json:"period"`
	TotalInvoiced string `json:"total_invoiced"`
	TotalIVA      string `json:"total_iva"`
	TotalExpense  string `json:"total_expense"`
	Margin        string `json:"margin"` // invoiced minus expenses
}

type RevenueFilter struct {
	GroupBy   string // week, month, quarter, year
	StartDate string // RFC3339
	EndDate   string // RFC3339
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error)
}

type revenueService struct {
	revenueRepo repository.RevenueRepository
}

func NewRevenueService(revenueRepo repository.RevenueRepository) RevenueService {
	return &revenueService{revenueRepo: revenueRepo}
}

// --- Implementation ---

func (s *revenueService) GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
		// valid
	default:
		groupBy = "month"
	}

	rows, err := s.revenueRepo.GetRevenueStatistics(ctx, groupBy, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}

	result := make([]RevenueDataPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, RevenueDataPoint{
			Period:        r.Period,
			TotalInvoiced: fmt.Sprintf("%.4f", r.TotalInvoiced),
			TotalIVA:      fmt.Sprintf("%.4f", r.TotalIVA),
			TotalExpense:  fmt.Sprintf("%.4f", r.TotalExpense),
			Margin:        fmt.Sprintf("%.4f", r.TotalInvoiced-r.TotalExpense),
		})
	}

	return result, nil
}
