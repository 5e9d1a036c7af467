package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/service"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
	"github.com/acolheapp/agenda-api/pkg/response"
)

// AvailabilityHandler exposes weekly availability templates.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Get godoc
// @Summary Get a professional's weekly availability
// @Tags Availability
// @Produce json
// @Param id path string true "Professional ID"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id}/availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	windows, err := h.availability.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// Replace godoc
// @Summary Replace a professional's weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Professional ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Weekly windows"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id}/availability [put]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	windows, err := h.availability.Replace(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}
