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

// WardenHandler exposes the warden triage endpoints.
type WardenHandler struct {
	complaints *service.ComplaintService
	tickets    *service.TicketService
	users      *service.UserService
}

// NewWardenHandler creates a new handler.
func NewWardenHandler(complaints *service.ComplaintService, tickets *service.TicketService, users *service.UserService) *WardenHandler {
	return &WardenHandler{complaints: complaints, tickets: tickets, users: users}
}

// ListComplaints godoc
// @Summary List complaints for triage
// @Description Warden lists all complaints, optionally filtered by type or status
// @Tags Warden
// @Produce json
// @Param type query string false "Complaint type filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /warden/complaints [get]
func (h *WardenHandler) ListComplaints(c *gin.Context) {
	var filter models.ComplaintFilter
	if raw := c.Query("type"); raw != "" {
		complaintType := models.ComplaintType(raw)
		if !complaintType.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown complaint type"))
			return
		}
		filter.Type = &complaintType
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ComplaintStatus(raw)
		filter.Status = &status
	}

	complaints, err := h.complaints.ListAll(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaints, nil)
}

// CreateTicket godoc
// @Summary Issue a ticket
// @Description Warden escalates an electrical complaint to an electrician
// @Tags Warden
// @Accept json
// @Produce json
// @Param payload body dto.CreateTicketRequest true "Ticket payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /warden/tickets [post]
func (h *WardenHandler) CreateTicket(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ticket payload"))
		return
	}

	ticket, err := h.tickets.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, ticket)
}

// ApproveCleaning godoc
// @Summary Approve a cleaning complaint
// @Description Warden assigns a cleaner and moves the complaint to in-progress
// @Tags Warden
// @Produce json
// @Param id path string true "Complaint ID"
// @Param cleanerId query string true "Cleaner user ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /warden/complaints/{id}/approve-cleaning [post]
func (h *WardenHandler) ApproveCleaning(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	cleanerID := c.Query("cleanerId")
	if cleanerID == "" {
		var req dto.ApproveCleaningRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			cleanerID = req.CleanerID
		}
	}
	if cleanerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "cleanerId is required"))
		return
	}

	complaint, err := h.complaints.ApproveCleaning(c.Request.Context(), claims.UserID, c.Param("id"), cleanerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint, nil)
}

// RejectComplaint godoc
// @Summary Reject a complaint
// @Description Warden rejects a complaint that is not yet completed
// @Tags Warden
// @Accept json
// @Produce json
// @Param id path string true "Complaint ID"
// @Param payload body dto.RejectComplaintRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /warden/complaints/{id}/reject [post]
func (h *WardenHandler) RejectComplaint(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectComplaintRequest
	_ = c.ShouldBindJSON(&req)

	complaint, err := h.complaints.Reject(c.Request.Context(), claims.UserID, c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint, nil)
}

// ListCleaners godoc
// @Summary List active cleaners
// @Description Warden lists cleaners available for assignment
// @Tags Warden
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /warden/cleaners [get]
func (h *WardenHandler) ListCleaners(c *gin.Context) {
	cleaners, err := h.users.ListByRole(c.Request.Context(), models.RoleCleaner)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, cleaners, nil)
}
