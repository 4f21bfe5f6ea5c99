package handler

import (
	"net/http"

	"solardash/internal/middleware"
	"solardash/internal/model"
	"solardash/internal/service"
	"solardash/pkg/pagination"
	"solardash/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/api/projects")
	{
		projects.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSales), h.ListProjects)
		projects.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSales), h.GetProject)
		projects.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateStatus)
		projects.POST("/:id/expenses", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.AddExpense)
		projects.DELETE("/:id/expenses/:expenseId", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.RemoveExpense)
	}
}

// ListProjects returns paginated projects
// @Summary      List projects
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        status  query     string  false  "Filter by status: IN_PROGRESS, COMPLETED, CANCELLED"
// @Success      200     {object}  response.Response
// @Router       /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	projects, total, err := h.projectService.GetProjects(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, projects, params.Page, params.Limit, total))
}

// GetProject returns a project with its expenses and margin
// @Summary      Get project
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Project ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// UpdateStatus moves the project through its workflow
// @Summary      Update project status
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Project ID"
// @Param        payload  body  UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/projects/{id}/status [patch]
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// AddExpense records an expense against an in-progress project
// @Summary      Add project expense
// @Tags         projects
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Project ID"
// @Param        payload  body  service.CreateExpenseRequest  true  "Expense payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/projects/{id}/expenses [post]
func (h *ProjectHandler) AddExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.AddExpense(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

// RemoveExpense deletes a project expense
// @Summary      Remove project expense
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id         path  string  true  "Project ID"
// @Param        expenseId  path  string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/projects/{id}/expenses/{expenseId} [delete]
func (h *ProjectHandler) RemoveExpense(c *gin.Context) {
	project, err := h.projectService.RemoveExpense(c.Request.Context(), c.Param("id"), c.Param("expenseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}
