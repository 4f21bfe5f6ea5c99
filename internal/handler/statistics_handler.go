package handler

import (
	"net/http"
	"time"

	"solardash/internal/middleware"
	"solardash/internal/model"
	"solardash/internal/service"
	"solardash/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	revenueService    service.RevenueService
}

func NewStatisticsHandler(statisticsService service.StatisticsService, revenueService service.RevenueService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		revenueService:    revenueService,
	}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics")
	statsGroup.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSales))
	{
		statsGroup.GET("/summary", h.GetDashboardSummary)
		statsGroup.GET("/revenue", h.GetRevenueStatistics)
	}
}

// GetDashboardSummary returns the quotation pipeline, financial totals
// and top-selling products bounded by time
// @Summary      Get dashboard summary
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query  string  false  "Start date (RFC3339, defaults to first of month)"
// @Param        end_date    query  string  false  "End date (RFC3339, defaults to now)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/statistics/summary [get]
func (h *StatisticsHandler) GetDashboardSummary(c *gin.Context) {
	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")

	var startDate, endDate time.Time
	var err error

	// Default to current month if no dates are provided
	now := time.Now()
	if startDateStr == "" {
		startDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	} else {
		startDate, err = time.Parse(time.RFC3339, startDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date format, expected RFC3339"))
			return
		}
	}

	if endDateStr == "" {
		endDate = now
	} else {
		endDate, err = time.Parse(time.RFC3339, endDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date format, expected RFC3339"))
			return
		}
	}

	summary, err := h.statisticsService.GetDashboardSummary(c.Request.Context(), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetRevenueStatistics returns invoiced revenue, IVA and expenses grouped by period
// @Summary      Get revenue statistics
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        group_by    query  string  false  "Grouping: week, month, quarter, year (default: month)"
// @Param        start_date  query  string  false  "Start date (RFC3339)"
// @Param        end_date    query  string  false  "End date (RFC3339)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/statistics/revenue [get]
func (h *StatisticsHandler) GetRevenueStatistics(c *gin.Context) {
	filter := service.RevenueFilter{
		GroupBy:   c.Query("group_by"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	points, err := h.revenueService.GetRevenueStatistics(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}
