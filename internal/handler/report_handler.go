package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/internal/service"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
	"github.com/acolheapp/agenda-api/pkg/response"
	"github.com/acolheapp/agenda-api/pkg/timeutil"
)

// ReportHandler exposes CSV and PDF exports of the ledger.
type ReportHandler struct {
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(exports *service.ExportService) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// AppointmentsCSV godoc
// @Summary Export appointments as CSV
// @Tags Reports
// @Produce text/csv
// @Param professional_id query string false "Filter by professional"
// @Param from query string false "Ends after this instant (RFC3339, interval intersection)"
// @Param to query string false "Starts before this instant (RFC3339, interval intersection)"
// @Success 200 {string} string "CSV payload"
// @Router /reports/appointments.csv [get]
func (h *ReportHandler) AppointmentsCSV(c *gin.Context) {
	filter := models.AppointmentFilter{
		ProfessionalID: c.Query("professional_id"),
		PageSize:       1000,
		SortBy:         "starts_at",
		SortOrder:      "asc",
	}
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

	payload, err := h.exports.AppointmentsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="appointments.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// AgendaPDF godoc
// @Summary Export one professional's daily agenda as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Professional ID"
// @Param date query string true "Calendar day (YYYY-MM-DD)"
// @Param tz query string false "IANA timezone for the day boundaries, default UTC"
// @Success 200 {string} string "PDF payload"
// @Router /reports/professionals/{id}/agenda.pdf [get]
func (h *ReportHandler) AgendaPDF(c *gin.Context) {
	date, err := timeutil.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	zone, err := timeutil.LoadZone(c.DefaultQuery("tz", "UTC"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown timezone"))
		return
	}
	dayStart, dayEnd := timeutil.DayWindowUTC(date, zone)

	payload, err := h.exports.AgendaPDF(c.Request.Context(), c.Param("id"), dayStart, dayEnd)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="agenda-%s.pdf"`, date.Format("2006-01-02")))
	c.Data(http.StatusOK, "application/pdf", payload)
}
