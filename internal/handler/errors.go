package handler

import (
	"errors"
	"net/http"

	"solardash/internal/service"
	"solardash/internal/session"
	"solardash/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps service-layer failures onto the HTTP error
// taxonomy: single-field validation failures are 400s, server-side
// validation is a 422 with per-field messages, save collisions and
// frozen quotations are 409s, everything else falls back to a 400.
func writeServiceError(c *gin.Context, err error) {
	var fieldErr *session.FieldError
	if errors.As(err, &fieldErr) {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(http.StatusBadRequest, fieldErr.Error(),
			map[string][]string{fieldErr.Field: {fieldErr.Message}}))
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationFailed(http.StatusUnprocessableEntity,
			"validation failed", validationErr.Fields))
		return
	}

	switch {
	case errors.Is(err, session.ErrSaveInFlight):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrQuotationNotEditable):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
