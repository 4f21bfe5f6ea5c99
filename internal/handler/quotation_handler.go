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

type QuotationHandler struct {
	quotationService service.QuotationService
}

func NewQuotationHandler(quotationService service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotations := router.Group("/api/quotations")
	quotations.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSales))
	{
		quotations.GET("", h.ListQuotations)
		quotations.GET("/:id", h.GetQuotation)
		quotations.POST("", h.CreateQuotation)
		quotations.PATCH("/:id/fields", h.EditField)
		quotations.POST("/:id/product-lines", h.AddProductLine)
		quotations.POST("/:id/item-lines", h.AddItemLine)
		quotations.DELETE("/:id/lines/:lineId", h.RemoveLine)
		quotations.GET("/:id/product-lines/:lineId/substitutes", h.ListSubstitutes)
		quotations.POST("/:id/product-lines/:lineId/substitute", h.SubstituteProduct)
		quotations.POST("/:id/save", h.SaveQuotation)
		quotations.POST("/:id/cancel", h.CancelEdits)
		quotations.PATCH("/:id/status", h.UpdateStatus)
		quotations.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.DeleteQuotation)
	}
}

// ListQuotations returns paginated quotation summaries
// @Summary      List quotations
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default: 1)"
// @Param        limit       query     int     false  "Items per page (default: 20)"
// @Param        status      query     string  false  "Filter by status: DRAFT, SENT, APPROVED, REJECTED"
// @Param        client_id   query     string  false  "Filter by client ID"
// @Param        search      query     string  false  "Search by name or quotation number"
// @Success      200         {object}  response.Response
// @Router       /api/quotations [get]
func (h *QuotationHandler) ListQuotations(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")
	clientID := c.Query("client_id")
	search := c.Query("search")

	quotations, total, err := h.quotationService.GetQuotations(c.Request.Context(), status, clientID, search, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, quotations, params.Page, params.Limit, total))
}

// GetQuotation returns the quotation's working state with lines and breakdown
// @Summary      Get quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id} [get]
func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	quotation, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// CreateQuotation creates a draft quotation for a client
// @Summary      Create quotation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateQuotationRequest  true  "Quotation payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations [post]
func (h *QuotationHandler) CreateQuotation(c *gin.Context) {
	var req service.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quotation))
}

// EditField applies a single field edit to the quotation's working state.
// The edit stays local until the quotation is saved.
// @Summary      Edit quotation field
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true  "Quotation ID"
// @Param        payload  body  service.EditFieldRequest  true  "Field edit"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/quotations/{id}/fields [patch]
func (h *QuotationHandler) EditField(c *gin.Context) {
	var req service.EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.EditField(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// AddProductLine appends a catalog product line to the working state
// @Summary      Add product line
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Quotation ID"
// @Param        payload  body  service.AddProductLineRequest  true  "Product line"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id}/product-lines [post]
func (h *QuotationHandler) AddProductLine(c *gin.Context) {
	var req service.AddProductLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.AddProductLine(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// AddItemLine appends a free-form item line to the working state
// @Summary      Add item line
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Quotation ID"
// @Param        payload  body  service.AddItemLineRequest  true  "Item line"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id}/item-lines [post]
func (h *QuotationHandler) AddItemLine(c *gin.Context) {
	var req service.AddItemLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.AddItemLine(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// RemoveLine removes a product or item line from the working state
// @Summary      Remove line
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "Quotation ID"
// @Param        lineId  path  string  true  "Line ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id}/lines/{lineId} [delete]
func (h *QuotationHandler) RemoveLine(c *gin.Context) {
	quotation, err := h.quotationService.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("lineId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// ListSubstitutes returns catalog products eligible to replace the line's product
// @Summary      List substitute candidates
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string  true  "Quotation ID"
// @Param        lineId  path  string  true  "Product line ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id}/product-lines/{lineId}/substitutes [get]
func (h *QuotationHandler) ListSubstitutes(c *gin.Context) {
	candidates, err := h.quotationService.ListSubstitutes(c.Request.Context(), c.Param("id"), c.Param("lineId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, candidates))
}

// SubstituteProduct swaps the line's product for another catalog product
// @Summary      Substitute product
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                            true  "Quotation ID"
// @Param        lineId   path  string                            true  "Product line ID"
// @Param        payload  body  service.SubstituteProductRequest  true  "Replacement product"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id}/product-lines/{lineId}/substitute [post]
func (h *QuotationHandler) SubstituteProduct(c *gin.Context) {
	var req service.SubstituteProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.SubstituteProduct(c.Request.Context(), c.Param("id"), c.Param("lineId"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// SaveQuotation persists the full working state to the database
// @Summary      Save quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/quotations/{id}/save [post]
func (h *QuotationHandler) SaveQuotation(c *gin.Context) {
	quotation, err := h.quotationService.SaveQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// CancelEdits discards unsaved edits and restores the last saved state
// @Summary      Cancel edits
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id}/cancel [post]
func (h *QuotationHandler) CancelEdits(c *gin.Context) {
	quotation, err := h.quotationService.CancelEdits(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// UpdateStatus moves the quotation through its workflow
// @Summary      Update quotation status
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Quotation ID"
// @Param        payload  body  UpdateStatusRequest      true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/status [patch]
func (h *QuotationHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// DeleteQuotation deletes a draft quotation
// @Summary      Delete quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/quotations/{id} [delete]
func (h *QuotationHandler) DeleteQuotation(c *gin.Context) {
	if err := h.quotationService.DeleteQuotation(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Quotation deleted successfully"}))
}

// UpdateStatusRequest carries a workflow status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
