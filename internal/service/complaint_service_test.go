package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
)

type mockComplaintRepo struct {
	complaints map[string]*models.Complaint
	created    []*models.Complaint
	withTicket []dto.ComplaintWithTicket
	listResult []models.Complaint
	lastFilter models.ComplaintFilter
}

func (m *mockComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = "generated"
	}
	m.created = append(m.created, complaint)
	return nil
}

func (m *mockComplaintRepo) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, ok := m.complaints[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *complaint
	return &copied, nil
}

func (m *mockComplaintRepo) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	m.lastFilter = filter
	return m.listResult, nil
}

func (m *mockComplaintRepo) UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus, assignedToID *string) error {
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

func (m *mockComplaintRepo) ListWithTickets(ctx context.Context) ([]dto.ComplaintWithTicket, error) {
	return m.withTicket, nil
}

type mockComplaintUsers struct {
	users     map[string]*models.User
	byRole    map[models.UserRole][]models.User
	auditLogs []*models.AuditLog
}

func (m *mockComplaintUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockComplaintUsers) FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return m.byRole[role], nil
}

func (m *mockComplaintUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type recordedNotification struct {
	kind      string
	recipient string
	detail    string
}

type mockNotifier struct {
	events []recordedNotification
}

func (m *mockNotifier) NotifyComplaintFiled(wardens []models.User, complaintType models.ComplaintType) {
	for _, w := range wardens {
		m.events = append(m.events, recordedNotification{kind: "filed", recipient: w.ID, detail: string(complaintType)})
	}
}

func (m *mockNotifier) NotifyComplaintInProgress(student *models.User) {
	m.events = append(m.events, recordedNotification{kind: "in_progress", recipient: student.ID})
}

func (m *mockNotifier) NotifyComplaintResolved(student *models.User) {
	m.events = append(m.events, recordedNotification{kind: "resolved", recipient: student.ID})
}

func newComplaintFixture() (*ComplaintService, *mockComplaintRepo, *mockComplaintUsers, *mockNotifier) {
	repo := &mockComplaintRepo{complaints: make(map[string]*models.Complaint)}
	users := &mockComplaintUsers{
		users:  make(map[string]*models.User),
		byRole: make(map[models.UserRole][]models.User),
	}
	notifier := &mockNotifier{}
	svc := NewComplaintService(repo, users, notifier, nil, validator.New(), zap.NewNop())
	return svc, repo, users, notifier
}

func TestComplaintServiceFileNotifiesWardens(t *testing.T) {
	svc, repo, users, notifier := newComplaintFixture()
	users.byRole[models.RoleWarden] = []models.User{
		{ID: "war-1", Email: "warden1@college.edu", Role: models.RoleWarden},
		{ID: "war-2", Email: "warden2@college.edu", Role: models.RoleWarden},
	}

	complaint, err := svc.File(context.Background(), "stu-1", dto.FileComplaintRequest{
		Type:        models.ComplaintTypeCleaner,
		Location:    "Block A Room 101",
		Description: "Room needs cleaning",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintSubmitted, complaint.Status)
	assert.Equal(t, "stu-1", complaint.StudentID)
	require.Len(t, repo.created, 1)
	require.Len(t, notifier.events, 2)
	assert.Equal(t, "filed", notifier.events[0].kind)
	assert.Equal(t, "CLEANER", notifier.events[0].detail)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionComplaintFile, users.auditLogs[0].Action)
}

func TestComplaintServiceFileRejectsUnknownType(t *testing.T) {
	svc, _, _, _ := newComplaintFixture()

	_, err := svc.File(context.Background(), "stu-1", dto.FileComplaintRequest{
		Type:        models.ComplaintType("PLUMBER"),
		Location:    "Block A",
		Description: "Leaky tap",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestComplaintServiceApproveCleaning(t *testing.T) {
	svc, repo, users, notifier := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintSubmitted}
	users.users["cln-1"] = &models.User{ID: "cln-1", Role: models.RoleCleaner}
	users.users["stu-1"] = &models.User{ID: "stu-1", Role: models.RoleStudent}

	complaint, err := svc.ApproveCleaning(context.Background(), "war-1", "c-1", "cln-1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintInProgress, complaint.Status)
	require.NotNil(t, complaint.AssignedToID)
	assert.Equal(t, "cln-1", *complaint.AssignedToID)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "in_progress", notifier.events[0].kind)
	assert.Equal(t, "stu-1", notifier.events[0].recipient)
}

func TestComplaintServiceApproveCleaningRejectsNonCleaner(t *testing.T) {
	svc, repo, users, _ := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintSubmitted}
	users.users["ele-1"] = &models.User{ID: "ele-1", Role: models.RoleElectrician}

	_, err := svc.ApproveCleaning(context.Background(), "war-1", "c-1", "ele-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, models.ComplaintSubmitted, repo.complaints["c-1"].Status)
}

func TestComplaintServiceApproveCleaningRejectsElectricalComplaint(t *testing.T) {
	svc, repo, users, _ := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeElectrician, Status: models.ComplaintSubmitted}
	users.users["cln-1"] = &models.User{ID: "cln-1", Role: models.RoleCleaner}

	_, err := svc.ApproveCleaning(context.Background(), "war-1", "c-1", "cln-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInvalidState.Status, appErr.Status)
}

// recordingCacheRepo captures pattern deletions so tests can assert cache
// invalidation on write paths.
type recordingCacheRepo struct {
	deleted []string
}

func (r *recordingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (r *recordingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.deleted = append(r.deleted, pattern)
	return nil
}

func TestComplaintServiceApproveCleaningInvalidatesDashboardCache(t *testing.T) {
	repo := &mockComplaintRepo{complaints: make(map[string]*models.Complaint)}
	users := &mockComplaintUsers{users: make(map[string]*models.User)}
	cacheRepo := &recordingCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewComplaintService(repo, users, nil, cache, validator.New(), zap.NewNop())

	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintSubmitted}
	users.users["cln-1"] = &models.User{ID: "cln-1", Role: models.RoleCleaner}

	_, err := svc.ApproveCleaning(context.Background(), "war-1", "c-1", "cln-1")
	require.NoError(t, err)
	require.Len(t, cacheRepo.deleted, 1)
	assert.Equal(t, dashboardCacheKey, cacheRepo.deleted[0])
}

func TestComplaintServiceApproveCleaningUnknownCleaner(t *testing.T) {
	svc, repo, _, _ := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintSubmitted}

	_, err := svc.ApproveCleaning(context.Background(), "war-1", "c-1", "cln-missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, models.ComplaintSubmitted, repo.complaints["c-1"].Status)
}

func TestComplaintServiceApproveCleaningInvalidState(t *testing.T) {
	svc, repo, users, _ := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintCompleted}
	users.users["cln-1"] = &models.User{ID: "cln-1", Role: models.RoleCleaner}

	_, err := svc.ApproveCleaning(context.Background(), "war-1", "c-1", "cln-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestComplaintServiceCompleteCleaning(t *testing.T) {
	svc, repo, users, notifier := newComplaintFixture()
	assignee := "cln-1"
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", AssignedToID: &assignee, Type: models.ComplaintTypeCleaner, Status: models.ComplaintInProgress}
	users.users["stu-1"] = &models.User{ID: "stu-1", Role: models.RoleStudent}

	complaint, err := svc.CompleteCleaning(context.Background(), "cln-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintCompleted, complaint.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "resolved", notifier.events[0].kind)
}

func TestComplaintServiceCompleteCleaningWrongAssignee(t *testing.T) {
	svc, repo, _, _ := newComplaintFixture()
	assignee := "cln-1"
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", AssignedToID: &assignee, Type: models.ComplaintTypeCleaner, Status: models.ComplaintInProgress}

	_, err := svc.CompleteCleaning(context.Background(), "cln-2", "c-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, models.ComplaintInProgress, repo.complaints["c-1"].Status)
}

func TestComplaintServiceReject(t *testing.T) {
	svc, repo, users, _ := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintSubmitted}

	complaint, err := svc.Reject(context.Background(), "war-1", "c-1", "duplicate report")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintRejected, complaint.Status)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionComplaintReject, users.auditLogs[0].Action)
}

func TestComplaintServiceRejectTerminal(t *testing.T) {
	svc, repo, _, _ := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{ID: "c-1", StudentID: "stu-1", Type: models.ComplaintTypeCleaner, Status: models.ComplaintRejected}

	_, err := svc.Reject(context.Background(), "war-1", "c-1", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestComplaintServiceCleaningTasksFilter(t *testing.T) {
	svc, repo, _, _ := newComplaintFixture()

	_, err := svc.CleaningTasks(context.Background(), "cln-1")
	require.NoError(t, err)
	assert.Equal(t, "cln-1", repo.lastFilter.AssignedToID)
	require.NotNil(t, repo.lastFilter.Status)
	assert.Equal(t, models.ComplaintInProgress, *repo.lastFilter.Status)
}

func TestComplaintServiceExportCSV(t *testing.T) {
	svc, repo, _, _ := newComplaintFixture()
	repo.withTicket = []dto.ComplaintWithTicket{
		{Complaint: models.Complaint{ID: "c-1", Type: models.ComplaintTypeElectrician, Location: "Block B", Status: models.ComplaintInProgress},
			Ticket: &models.Ticket{TicketNumber: "TKT-20260830-abcd1234"}},
	}

	payload, contentType, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "TKT-20260830-abcd1234")
}

func TestComplaintServiceExportUnknownFormat(t *testing.T) {
	svc, _, _, _ := newComplaintFixture()

	_, _, err := svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
