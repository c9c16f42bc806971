package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/dto"
	internalmiddleware "github.com/hosteldesk/facility-api/internal/middleware"
	"github.com/hosteldesk/facility-api/internal/models"
	"github.com/hosteldesk/facility-api/internal/service"
)

// memComplaintRepo is an in-memory complaint store backing route tests.
type memComplaintRepo struct {
	complaints map[string]*models.Complaint
}

func (m *memComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = "c-new"
	}
	m.complaints[complaint.ID] = complaint
	return nil
}

func (m *memComplaintRepo) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, ok := m.complaints[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *complaint
	return &copied, nil
}

func (m *memComplaintRepo) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, complaint := range m.complaints {
		if filter.StudentID != "" && complaint.StudentID != filter.StudentID {
			continue
		}
		if filter.AssignedToID != "" && (complaint.AssignedToID == nil || *complaint.AssignedToID != filter.AssignedToID) {
			continue
		}
		if filter.Status != nil && complaint.Status != *filter.Status {
			continue
		}
		out = append(out, *complaint)
	}
	return out, nil
}

func (m *memComplaintRepo) UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus, assignedToID *string) error {
	complaint, ok := m.complaints[id]
	if !ok {
		return sql.ErrNoRows
	}
	complaint.Status = status
	if assignedToID != nil {
		complaint.AssignedToID = assignedToID
	}
	return nil
}

func (m *memComplaintRepo) ListWithTickets(ctx context.Context) ([]dto.ComplaintWithTicket, error) {
	var out []dto.ComplaintWithTicket
	for _, complaint := range m.complaints {
		out = append(out, dto.ComplaintWithTicket{Complaint: *complaint})
	}
	return out, nil
}

// memUserRepo serves user lookups and swallows audit writes.
type memUserRepo struct {
	users map[string]*models.User
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var out []models.User
	for _, user := range m.users {
		if user.Role == role {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (m *memUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-new"
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *memUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *memUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return nil
}

func (m *memUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	return nil
}

func (m *memUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

// memTicketRepo is an in-memory ticket store.
type memTicketRepo struct {
	tickets    map[string]*models.Ticket
	complaints *memComplaintRepo
}

func (m *memTicketRepo) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (m *memTicketRepo) FindByComplaintID(ctx context.Context, complaintID string) (*models.Ticket, error) {
	for _, ticket := range m.tickets {
		if ticket.ComplaintID == complaintID {
			return ticket, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memTicketRepo) ListByAssignee(ctx context.Context, assigneeID string, status *models.TicketStatus) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, ticket := range m.tickets {
		if ticket.AssignedToID != assigneeID {
			continue
		}
		if status != nil && ticket.Status != *status {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (m *memTicketRepo) CreateWithComplaint(ctx context.Context, ticket *models.Ticket, complaintStatus models.ComplaintStatus) error {
	if ticket.ID == "" {
		ticket.ID = "t-new"
	}
	ticket.Status = models.TicketOpen
	m.tickets[ticket.ID] = ticket
	return m.complaints.UpdateStatus(ctx, ticket.ComplaintID, complaintStatus, &ticket.AssignedToID)
}

func (m *memTicketRepo) ResolveWithComplaint(ctx context.Context, ticket *models.Ticket) error {
	now := time.Now().UTC()
	ticket.Status = models.TicketResolved
	ticket.ResolvedAt = &now
	m.tickets[ticket.ID] = ticket
	return m.complaints.UpdateStatus(ctx, ticket.ComplaintID, models.ComplaintCompleted, nil)
}

type routeFixture struct {
	router     *gin.Engine
	complaints *memComplaintRepo
	users      *memUserRepo
	tickets    *memTicketRepo
}

func buildRouter(t *testing.T) *routeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	complaints := &memComplaintRepo{complaints: make(map[string]*models.Complaint)}
	users := &memUserRepo{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Email: "student@college.edu", Role: models.RoleStudent, Active: true},
		"war-1": {ID: "war-1", Email: "warden@college.edu", Role: models.RoleWarden, Active: true},
		"cln-1": {ID: "cln-1", Email: "cleaner@college.edu", Role: models.RoleCleaner, Active: true},
		"ele-1": {ID: "ele-1", Email: "sparky@college.edu", Role: models.RoleElectrician, Active: true},
		"adm-1": {ID: "adm-1", Email: "admin@college.edu", Role: models.RoleAdmin, Active: true},
	}}
	tickets := &memTicketRepo{tickets: make(map[string]*models.Ticket), complaints: complaints}

	logger := zap.NewNop()
	validate := validator.New()
	complaintSvc := service.NewComplaintService(complaints, users, nil, nil, validate, logger)
	ticketSvc := service.NewTicketService(tickets, complaints, users, nil, nil, validate, logger)
	userSvc := service.NewUserService(users, validate, logger)
	dashboardSvc := service.NewDashboardService(dashCounts{complaints}, dashTicketCounts{tickets}, nil, 0, logger)
	metricsSvc := service.NewMetricsService(nil)

	h := Handlers{
		Auth:        NewAuthHandler(service.NewAuthService(users, validate, logger, service.AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, RefreshTokenExpiry: time.Hour})),
		Complaint:   NewComplaintHandler(complaintSvc),
		Warden:      NewWardenHandler(complaintSvc, ticketSvc, userSvc),
		Cleaner:     NewCleanerHandler(complaintSvc),
		Electrician: NewElectricianHandler(ticketSvc),
		Admin:       NewAdminHandler(userSvc, complaintSvc, metricsSvc),
		Dashboard:   NewDashboardHandler(dashboardSvc),
		Metrics:     NewMetricsHandler(metricsSvc),
	}

	router := gin.New()
	testAuth := func(c *gin.Context) {
		role := c.GetHeader("X-Test-Role")
		if role == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		userID := c.GetHeader("X-Test-User")
		if userID == "" {
			userID = "test-user"
		}
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: models.UserRole(role)})
		c.Next()
	}
	RegisterRoutes(router.Group("/api"), h, testAuth)

	return &routeFixture{router: router, complaints: complaints, users: users, tickets: tickets}
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesComplaintLifecycle(t *testing.T) {
	f := buildRouter(t)

	// Student files a cleaning complaint.
	body := bytes.NewBufferString(`{"complaint_type":"CLEANER","location":"Block A Room 101","description":"Room needs cleaning"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/complaints", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "stu-1")
	resp := performRequest(f.router, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		Data models.Complaint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	complaintID := created.Data.ID
	assert.Equal(t, models.ComplaintSubmitted, created.Data.Status)

	// Warden approves with a cleaner.
	req, _ = http.NewRequest(http.MethodPost, "/api/warden/complaints/"+complaintID+"/approve-cleaning?cleanerId=cln-1", nil)
	req.Header.Set("X-Test-Role", string(models.RoleWarden))
	req.Header.Set("X-Test-User", "war-1")
	resp = performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.ComplaintInProgress, f.complaints.complaints[complaintID].Status)

	// Assigned cleaner sees the task and completes it.
	req, _ = http.NewRequest(http.MethodGet, "/api/cleaner/tasks", nil)
	req.Header.Set("X-Test-Role", string(models.RoleCleaner))
	req.Header.Set("X-Test-User", "cln-1")
	resp = performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), complaintID)

	req, _ = http.NewRequest(http.MethodPost, "/api/cleaner/tasks/"+complaintID+"/complete", nil)
	req.Header.Set("X-Test-Role", string(models.RoleCleaner))
	req.Header.Set("X-Test-User", "cln-1")
	resp = performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.ComplaintCompleted, f.complaints.complaints[complaintID].Status)
}

func TestRoutesTicketLifecycle(t *testing.T) {
	f := buildRouter(t)
	f.complaints.complaints["c-e1"] = &models.Complaint{ID: "c-e1", StudentID: "stu-1", Type: models.ComplaintTypeElectrician, Status: models.ComplaintSubmitted}

	body := bytes.NewBufferString(`{"complaint_id":"c-e1","electrician_id":"ele-1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/warden/tickets", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleWarden))
	req.Header.Set("X-Test-User", "war-1")
	resp := performRequest(f.router, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		Data models.Ticket `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Regexp(t, `^TKT-\d{8}-[0-9a-f]{8}$`, created.Data.TicketNumber)
	assert.Equal(t, models.ComplaintInProgress, f.complaints.complaints["c-e1"].Status)

	// Electrician resolves the ticket.
	req, _ = http.NewRequest(http.MethodPatch, "/api/electrician/tickets/"+created.Data.ID+"/resolve", bytes.NewBufferString(`{"resolution_notes":"Replaced fuse"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleElectrician))
	req.Header.Set("X-Test-User", "ele-1")
	resp = performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.ComplaintCompleted, f.complaints.complaints["c-e1"].Status)
}

func TestRoutesRBACMatrix(t *testing.T) {
	f := buildRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		status int
	}{
		{"student cannot triage", http.MethodGet, "/api/warden/complaints", "STUDENT", http.StatusForbidden},
		{"cleaner cannot create ticket", http.MethodPost, "/api/warden/tickets", "CLEANER", http.StatusForbidden},
		{"electrician cannot view dashboard", http.MethodGet, "/api/dashboard/stats", "ELECTRICIAN", http.StatusForbidden},
		{"warden can view dashboard", http.MethodGet, "/api/dashboard/stats", "WARDEN", http.StatusOK},
		{"admin can view dashboard", http.MethodGet, "/api/dashboard/stats", "ADMIN", http.StatusOK},
		{"warden cannot admin perf", http.MethodGet, "/api/admin/perf", "WARDEN", http.StatusForbidden},
		{"warden queries role roster", http.MethodGet, "/api/admin/users?role=ELECTRICIAN", "WARDEN", http.StatusOK},
		{"warden cannot list all users", http.MethodGet, "/api/admin/users/all", "WARDEN", http.StatusForbidden},
		{"admin lists register", http.MethodGet, "/api/admin/complaints/all", "ADMIN", http.StatusOK},
		{"no token rejected", http.MethodGet, "/api/complaints/my-complaints", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, tc.path, nil)
			if tc.role != "" {
				req.Header.Set("X-Test-Role", tc.role)
			}
			resp := performRequest(f.router, req)
			assert.Equal(t, tc.status, resp.Code)
		})
	}
}

func TestRoutesCleanerQueryMismatch(t *testing.T) {
	f := buildRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/cleaner/tasks?cleanerId=cln-2", nil)
	req.Header.Set("X-Test-Role", string(models.RoleCleaner))
	req.Header.Set("X-Test-User", "cln-1")
	resp := performRequest(f.router, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRoutesAdminExport(t *testing.T) {
	f := buildRouter(t)
	f.complaints.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintSubmitted}

	req, _ := http.NewRequest(http.MethodGet, "/api/admin/complaints/export?format=csv", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(f.router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), "c-1")
}

// Thin adapters so the in-memory repos satisfy the dashboard count interfaces.
type dashCounts struct{ repo *memComplaintRepo }

func (d dashCounts) CountAll(ctx context.Context) (int, error) {
	return len(d.repo.complaints), nil
}

func (d dashCounts) CountByStatus(ctx context.Context, status models.ComplaintStatus) (int, error) {
	count := 0
	for _, complaint := range d.repo.complaints {
		if complaint.Status == status {
			count++
		}
	}
	return count, nil
}

type dashTicketCounts struct{ repo *memTicketRepo }

func (d dashTicketCounts) CountByStatus(ctx context.Context, status models.TicketStatus) (int, error) {
	count := 0
	for _, ticket := range d.repo.tickets {
		if ticket.Status == status {
			count++
		}
	}
	return count, nil
}
