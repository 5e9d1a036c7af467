package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/service"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
	"github.com/acolheapp/agenda-api/pkg/response"
	"github.com/acolheapp/agenda-api/pkg/timeutil"
)

// SlotHandler exposes free-slot queries.
type SlotHandler struct {
	slots *service.SlotService
}

// NewSlotHandler constructs SlotHandler.
func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// Day godoc
// @Summary Free slots for one calendar day
// @Tags Slots
// @Produce json
// @Param id path string true "Professional ID"
// @Param date query string true "Calendar day (YYYY-MM-DD)"
// @Param tz query string false "IANA timezone for the day boundaries, default UTC"
// @Param duration query int false "Slot duration in minutes"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id}/slots [get]
func (h *SlotHandler) Day(c *gin.Context) {
	date, err := timeutil.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	zoneName := c.DefaultQuery("tz", "UTC")
	zone, err := timeutil.LoadZone(zoneName)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown timezone"))
		return
	}
	duration, err := durationParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	rangeStart, rangeEnd := timeutil.DayWindowUTC(date, zone)
	query := dto.SlotQuery{
		ProfessionalID: c.Param("id"),
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
		Duration:       duration,
	}
	slots, err := h.slots.FreeSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	for i := range slots {
		slots[i].Local = timeutil.ToLocal(slots[i].StartsAt, zone).Format("15:04")
	}

	response.JSON(c, http.StatusOK, dto.SlotsResponse{
		ProfessionalID: query.ProfessionalID,
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
		DurationMin:    durationMinutes(h.slots.ResolveDuration(duration)),
		Timezone:       zoneName,
		Slots:          slots,
	}, nil)
}

// Week godoc
// @Summary Free slots for the week containing one calendar day
// @Tags Slots
// @Produce json
// @Param id path string true "Professional ID"
// @Param date query string true "Any day inside the week (YYYY-MM-DD)"
// @Param tz query string false "IANA timezone for the week boundaries, default UTC"
// @Param duration query int false "Slot duration in minutes"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id}/slots/week [get]
func (h *SlotHandler) Week(c *gin.Context) {
	date, err := timeutil.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	zoneName := c.DefaultQuery("tz", "UTC")
	zone, err := timeutil.LoadZone(zoneName)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown timezone"))
		return
	}
	duration, err := durationParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	rangeStart, rangeEnd := timeutil.WeekWindowUTC(date, zone)
	query := dto.SlotQuery{
		ProfessionalID: c.Param("id"),
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
		Duration:       duration,
	}
	slots, err := h.slots.FreeSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	for i := range slots {
		slots[i].Local = timeutil.ToLocal(slots[i].StartsAt, zone).Format("Mon 15:04")
	}

	response.JSON(c, http.StatusOK, dto.SlotsResponse{
		ProfessionalID: query.ProfessionalID,
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
		DurationMin:    durationMinutes(h.slots.ResolveDuration(duration)),
		Timezone:       zoneName,
		Slots:          slots,
	}, nil)
}

// Range godoc
// @Summary Free slots over an arbitrary UTC range
// @Tags Slots
// @Produce json
// @Param id path string true "Professional ID"
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Param duration query int false "Slot duration in minutes"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id}/slots/range [get]
func (h *SlotHandler) Range(c *gin.Context) {
	from, err := timeutil.ParseInstant(c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339"))
		return
	}
	to, err := timeutil.ParseInstant(c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339"))
		return
	}
	duration, err := durationParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	query := dto.SlotQuery{
		ProfessionalID: c.Param("id"),
		RangeStart:     from,
		RangeEnd:       to,
		Duration:       duration,
	}
	slots, err := h.slots.FreeSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SlotsResponse{
		ProfessionalID: query.ProfessionalID,
		RangeStart:     from,
		RangeEnd:       to,
		DurationMin:    durationMinutes(h.slots.ResolveDuration(duration)),
		Slots:          slots,
	}, nil)
}

// Check godoc
// @Summary Check whether one interval is free
// @Tags Slots
// @Produce json
// @Param id path string true "Professional ID"
// @Param starts_at query string true "Interval start (RFC3339)"
// @Param ends_at query string true "Interval end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /professionals/{id}/slots/check [get]
func (h *SlotHandler) Check(c *gin.Context) {
	startsAt, err := timeutil.ParseInstant(c.Query("starts_at"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "starts_at must be RFC3339"))
		return
	}
	endsAt, err := timeutil.ParseInstant(c.Query("ends_at"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ends_at must be RFC3339"))
		return
	}

	professionalID := c.Param("id")
	free, err := h.slots.IsFree(c.Request.Context(), professionalID, startsAt, endsAt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.FreeCheckResponse{
		ProfessionalID: professionalID,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		Free:           free,
	}, nil)
}

func durationParam(c *gin.Context) (time.Duration, error) {
	raw := c.Query("duration")
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "duration must be a positive number of minutes")
	}
	return time.Duration(minutes) * time.Minute, nil
}

func durationMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
