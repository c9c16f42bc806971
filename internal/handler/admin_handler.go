package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
	"github.com/hosteldesk/facility-api/internal/service"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
	"github.com/hosteldesk/facility-api/pkg/response"
)

// AdminHandler exposes user administration and oversight endpoints.
type AdminHandler struct {
	users      *service.UserService
	complaints *service.ComplaintService
	metrics    *service.MetricsService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(users *service.UserService, complaints *service.ComplaintService, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{users: users, complaints: complaints, metrics: metrics}
}

// CreateUser godoc
// @Summary Create an account
// @Description Admin provisions an account with any role
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// ListAllUsers godoc
// @Summary List every account
// @Description Admin lists all accounts with pagination
// @Tags Admin
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/users/all [get]
func (h *AdminHandler) ListAllUsers(c *gin.Context) {
	var filter models.UserFilter
	fmt.Sscanf(c.DefaultQuery("page", "1"), "%d", &filter.Page)
	fmt.Sscanf(c.DefaultQuery("page_size", "20"), "%d", &filter.PageSize)
	filter.Search = c.Query("search")

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// ListUsersByRole godoc
// @Summary List accounts by role
// @Description Admin lists active accounts holding the given role
// @Tags Admin
// @Produce json
// @Param role query string true "Role name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsersByRole(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	users, err := h.users.ListByRole(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, nil)
}

// ListComplaintsWithTickets godoc
// @Summary Full complaint register
// @Description Admin lists every complaint joined with its ticket when one exists
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/complaints/all [get]
func (h *AdminHandler) ListComplaintsWithTickets(c *gin.Context) {
	items, err := h.complaints.ListWithTickets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// ExportComplaints godoc
// @Summary Export the complaint register
// @Description Streams the register as CSV or PDF
// @Tags Admin
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/complaints/export [get]
func (h *AdminHandler) ExportComplaints(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.complaints.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("complaints-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// Performance godoc
// @Summary Runtime performance snapshot
// @Description Returns aggregated request and notification counters
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/perf [get]
func (h *AdminHandler) Performance(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
