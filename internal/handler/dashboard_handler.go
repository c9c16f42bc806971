package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/facility-api/internal/service"
	"github.com/hosteldesk/facility-api/pkg/response"
)

// DashboardHandler serves workload counters for wardens and admins.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Facility workload counters
// @Description Complaint and ticket counts computed at request time
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}
