package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/facility-api/internal/service"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
	"github.com/hosteldesk/facility-api/pkg/response"
)

// CleanerHandler exposes the cleaner task endpoints.
type CleanerHandler struct {
	complaints *service.ComplaintService
}

// NewCleanerHandler creates a new handler.
func NewCleanerHandler(complaints *service.ComplaintService) *CleanerHandler {
	return &CleanerHandler{complaints: complaints}
}

// Tasks godoc
// @Summary List assigned cleaning tasks
// @Description Cleaner lists their in-progress cleaning assignments
// @Tags Cleaner
// @Produce json
// @Param cleanerId query string false "Cleaner user ID, must match the caller"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cleaner/tasks [get]
func (h *CleanerHandler) Tasks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if requested := c.Query("cleanerId"); requested != "" && requested != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot view another cleaner's tasks"))
		return
	}

	tasks, err := h.complaints.CleaningTasks(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tasks, nil)
}

// CompleteTask godoc
// @Summary Complete a cleaning task
// @Description Cleaner marks an assigned complaint as completed
// @Tags Cleaner
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cleaner/tasks/{id}/complete [post]
func (h *CleanerHandler) CompleteTask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	complaint, err := h.complaints.CompleteCleaning(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, complaint, nil)
}
