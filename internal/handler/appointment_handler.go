package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/internal/service"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
	"github.com/acolheapp/agenda-api/pkg/response"
	"github.com/acolheapp/agenda-api/pkg/timeutil"
)

// AppointmentHandler exposes the appointment ledger.
type AppointmentHandler struct {
	bookings *service.BookingService
}

// NewAppointmentHandler constructs AppointmentHandler.
func NewAppointmentHandler(bookings *service.BookingService) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings}
}

// Reserve godoc
// @Summary Reserve an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.ReserveRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appointment, err := h.bookings.Reserve(c.Request.Context(), req, currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appointment)
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param professional_id query string false "Filter by professional"
// @Param student_id query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param from query string false "Ends after this instant (RFC3339, interval intersection)"
// @Param to query string false "Starts before this instant (RFC3339, interval intersection)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	var filter models.AppointmentFilter
	filter.ProfessionalID = c.Query("professional_id")
	filter.StudentID = c.Query("student_id")
	filter.Status = models.AppointmentStatus(strings.ToUpper(c.Query("status")))
	if raw := c.Query("from"); raw != "" {
		from, err := timeutil.ParseInstant(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339"))
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := timeutil.ParseInstant(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339"))
			return
		}
		filter.To = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	appointments, total, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	response.JSON(c, http.StatusOK, appointments, &models.Pagination{Page: page, PageSize: size, TotalCount: total})
}

// Get godoc
// @Summary Get one appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// ChangeStatus godoc
// @Summary Transition an appointment's status
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.StatusChangeRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) ChangeStatus(c *gin.Context) {
	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appointment, err := h.bookings.ChangeStatus(c.Request.Context(), c.Param("id"), models.AppointmentStatus(req.Status), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appointment, err := h.bookings.Cancel(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}
