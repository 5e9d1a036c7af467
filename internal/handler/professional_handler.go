package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/internal/service"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
	"github.com/acolheapp/agenda-api/pkg/response"
)

// ProfessionalHandler exposes professional endpoints.
type ProfessionalHandler struct {
	professionals *service.ProfessionalService
}

// NewProfessionalHandler constructs ProfessionalHandler.
func NewProfessionalHandler(professionals *service.ProfessionalService) *ProfessionalHandler {
	return &ProfessionalHandler{professionals: professionals}
}

// List godoc
// @Summary List professionals
// @Tags Professionals
// @Produce json
// @Param search query string false "Search by name"
// @Param speciality query string false "Filter by speciality"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /professionals [get]
func (h *ProfessionalHandler) List(c *gin.Context) {
	var filter models.ProfessionalFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Speciality = c.Query("speciality")
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	professionals, pagination, err := h.professionals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professionals, pagination)
}

// Get godoc
// @Summary Get professional detail
// @Tags Professionals
// @Produce json
// @Param id path string true "Professional ID"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id} [get]
func (h *ProfessionalHandler) Get(c *gin.Context) {
	professional, err := h.professionals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professional, nil)
}

// Create godoc
// @Summary Register a professional
// @Tags Professionals
// @Accept json
// @Produce json
// @Param payload body service.CreateProfessionalRequest true "Professional payload"
// @Success 201 {object} response.Envelope
// @Router /professionals [post]
func (h *ProfessionalHandler) Create(c *gin.Context) {
	var req service.CreateProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	professional, err := h.professionals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, professional)
}

// Update godoc
// @Summary Update a professional
// @Tags Professionals
// @Accept json
// @Produce json
// @Param id path string true "Professional ID"
// @Param payload body service.UpdateProfessionalRequest true "Professional payload"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id} [put]
func (h *ProfessionalHandler) Update(c *gin.Context) {
	var req service.UpdateProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	professional, err := h.professionals.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professional, nil)
}

// Deactivate godoc
// @Summary Deactivate a professional
// @Tags Professionals
// @Produce json
// @Param id path string true "Professional ID"
// @Success 204
// @Router /professionals/{id} [delete]
func (h *ProfessionalHandler) Deactivate(c *gin.Context) {
	if err := h.professionals.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
