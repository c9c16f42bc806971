package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
	"github.com/hosteldesk/facility-api/internal/service"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
	"github.com/hosteldesk/facility-api/pkg/response"
)

// ElectricianHandler exposes the electrician work queue endpoints.
type ElectricianHandler struct {
	tickets *service.TicketService
}

// NewElectricianHandler creates a new handler.
func NewElectricianHandler(tickets *service.TicketService) *ElectricianHandler {
	return &ElectricianHandler{tickets: tickets}
}

// Tickets godoc
// @Summary List assigned tickets
// @Description Electrician lists tickets assigned to them, optionally by status
// @Tags Electrician
// @Produce json
// @Param status query string false "Ticket status filter (OPEN or RESOLVED)"
// @Success 200 {object} response.Envelope
// @Router /electrician/tickets [get]
func (h *ElectricianHandler) Tickets(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var status *models.TicketStatus
	if raw := c.Query("status"); raw != "" {
		parsed := models.TicketStatus(raw)
		if parsed != models.TicketOpen && parsed != models.TicketResolved {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown ticket status"))
			return
		}
		status = &parsed
	}

	tickets, err := h.tickets.ListAssigned(c.Request.Context(), claims.UserID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tickets, nil)
}

// ResolveTicket godoc
// @Summary Resolve an assigned ticket
// @Description Electrician closes an open ticket and completes the backing complaint
// @Tags Electrician
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param payload body dto.ResolveTicketRequest false "Resolution notes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /electrician/tickets/{id}/resolve [patch]
func (h *ElectricianHandler) ResolveTicket(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ResolveTicketRequest
	_ = c.ShouldBindJSON(&req)

	ticket, err := h.tickets.Resolve(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ticket, nil)
}
