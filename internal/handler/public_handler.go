package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/service"
	"github.com/acolheapp/agenda-api/pkg/response"
)

// PublicHandler exposes the token-driven confirm/cancel endpoints used from
// reminder messages. No authentication; the token is the credential.
type PublicHandler struct {
	bookings *service.BookingService
}

// NewPublicHandler constructs PublicHandler.
func NewPublicHandler(bookings *service.BookingService) *PublicHandler {
	return &PublicHandler{bookings: bookings}
}

// Redeem godoc
// @Summary Redeem a confirm or cancel token
// @Tags Public
// @Produce json
// @Param token path string true "Single-use token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /public/appointments/{token} [post]
func (h *PublicHandler) Redeem(c *gin.Context) {
	result, err := h.bookings.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
