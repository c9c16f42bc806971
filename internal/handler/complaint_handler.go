package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/service"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
	"github.com/hosteldesk/facility-api/pkg/response"
)

// ComplaintHandler exposes the student-facing complaint endpoints.
type ComplaintHandler struct {
	service *service.ComplaintService
}

// NewComplaintHandler creates a new handler.
func NewComplaintHandler(svc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// File godoc
// @Summary File a complaint
// @Description Student files a cleaning or electrical complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body dto.FileComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) File(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.FileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}

	complaint, err := h.service.File(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, complaint)
}

// MyComplaints godoc
// @Summary List own complaints
// @Description Student lists complaints they filed, newest first
// @Tags Complaints
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /complaints/my-complaints [get]
func (h *ComplaintHandler) MyComplaints(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	complaints, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaints, nil)
}
