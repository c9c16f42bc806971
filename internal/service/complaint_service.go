package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
	"github.com/hosteldesk/facility-api/pkg/export"
)

type complaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus, assignedToID *string) error
	ListWithTickets(ctx context.Context) ([]dto.ComplaintWithTicket, error)
}

type complaintUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type complaintNotifier interface {
	NotifyComplaintFiled(wardens []models.User, complaintType models.ComplaintType)
	NotifyComplaintInProgress(student *models.User)
	NotifyComplaintResolved(student *models.User)
}

// ComplaintService implements the complaint lifecycle from filing to closure.
type ComplaintService struct {
	repo      complaintRepository
	users     complaintUserRepository
	notifier  complaintNotifier
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComplaintService constructs a ComplaintService. The cache, when enabled,
// holds dashboard aggregates and is invalidated on every status change.
func NewComplaintService(repo complaintRepository, users complaintUserRepository, notifier complaintNotifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ComplaintService{repo: repo, users: users, notifier: notifier, cache: cache, validator: validate, logger: logger}
}

// File registers a new complaint for the student and alerts every warden.
func (s *ComplaintService) File(ctx context.Context, studentID string, req dto.FileComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown complaint type %q", req.Type))
	}

	complaint := &models.Complaint{
		StudentID:   studentID,
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
		Status:      models.ComplaintSubmitted,
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}
	s.invalidateStats(ctx)

	wardens, err := s.users.FindByRole(ctx, models.RoleWarden)
	if err != nil {
		s.logger.Warn("failed to load wardens for notification", zap.Error(err))
	} else if s.notifier != nil {
		s.notifier.NotifyComplaintFiled(wardens, complaint.Type)
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &studentID,
		Action:     models.AuditActionComplaintFile,
		Resource:   "complaint",
		ResourceID: &complaint.ID,
		NewValues:  []byte(fmt.Sprintf(`{"type":%q,"status":%q}`, complaint.Type, complaint.Status)),
	}); err != nil {
		s.logger.Warn("failed to record complaint audit log", zap.Error(err))
	}

	return complaint, nil
}

// ListMine returns the complaints filed by the student, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, studentID string) ([]models.Complaint, error) {
	complaints, err := s.repo.List(ctx, models.ComplaintFilter{StudentID: studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, nil
}

// ListAll returns every complaint matching the filter for triage views.
func (s *ComplaintService) ListAll(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	complaints, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, nil
}

// ListWithTickets returns the full complaint register joined with tickets.
func (s *ComplaintService) ListWithTickets(ctx context.Context) ([]dto.ComplaintWithTicket, error) {
	items, err := s.repo.ListWithTickets(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints with tickets")
	}
	return items, nil
}

// ApproveCleaning assigns a cleaner to a cleaning complaint and moves it to
// in-progress. The assignee must hold the CLEANER role.
func (s *ComplaintService) ApproveCleaning(ctx context.Context, wardenID, complaintID, cleanerID string) (*models.Complaint, error) {
	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if complaint.Type != models.ComplaintTypeCleaner {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "complaint is not a cleaning complaint")
	}
	if !complaint.Status.CanTransition(models.ComplaintInProgress) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("complaint in status %s cannot be approved", complaint.Status))
	}

	cleaner, err := s.users.FindByID(ctx, cleanerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cleaner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cleaner")
	}
	if cleaner.Role != models.RoleCleaner {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not a cleaner", cleanerID))
	}

	if err := s.repo.UpdateStatus(ctx, complaint.ID, models.ComplaintInProgress, &cleaner.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve complaint")
	}
	complaint.Status = models.ComplaintInProgress
	complaint.AssignedToID = &cleaner.ID
	s.invalidateStats(ctx)

	s.notifyStudent(ctx, complaint.StudentID, func(student *models.User) {
		s.notifier.NotifyComplaintInProgress(student)
	})

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &wardenID,
		Action:     models.AuditActionComplaintApprove,
		Resource:   "complaint",
		ResourceID: &complaint.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q,"assigned_to":%q}`, complaint.Status, cleaner.ID)),
	}); err != nil {
		s.logger.Warn("failed to record approve audit log", zap.Error(err))
	}

	return complaint, nil
}

// CompleteCleaning closes an in-progress cleaning complaint. Only the
// assigned cleaner may complete it.
func (s *ComplaintService) CompleteCleaning(ctx context.Context, cleanerID, complaintID string) (*models.Complaint, error) {
	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if complaint.AssignedToID == nil || *complaint.AssignedToID != cleanerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "complaint is not assigned to you")
	}
	if !complaint.Status.CanTransition(models.ComplaintCompleted) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("complaint in status %s cannot be completed", complaint.Status))
	}

	if err := s.repo.UpdateStatus(ctx, complaint.ID, models.ComplaintCompleted, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete complaint")
	}
	complaint.Status = models.ComplaintCompleted
	s.invalidateStats(ctx)

	s.notifyStudent(ctx, complaint.StudentID, func(student *models.User) {
		s.notifier.NotifyComplaintResolved(student)
	})

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &cleanerID,
		Action:     models.AuditActionComplaintComplete,
		Resource:   "complaint",
		ResourceID: &complaint.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, complaint.Status)),
	}); err != nil {
		s.logger.Warn("failed to record complete audit log", zap.Error(err))
	}

	return complaint, nil
}

// Reject moves a non-terminal complaint to rejected.
func (s *ComplaintService) Reject(ctx context.Context, wardenID, complaintID, reason string) (*models.Complaint, error) {
	complaint, err := s.loadComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	if !complaint.Status.CanTransition(models.ComplaintRejected) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("complaint in status %s cannot be rejected", complaint.Status))
	}

	if err := s.repo.UpdateStatus(ctx, complaint.ID, models.ComplaintRejected, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject complaint")
	}
	complaint.Status = models.ComplaintRejected
	s.invalidateStats(ctx)

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &wardenID,
		Action:     models.AuditActionComplaintReject,
		Resource:   "complaint",
		ResourceID: &complaint.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q,"reason":%q}`, complaint.Status, reason)),
	}); err != nil {
		s.logger.Warn("failed to record reject audit log", zap.Error(err))
	}

	return complaint, nil
}

// CleaningTasks returns the in-progress cleaning work assigned to a cleaner.
func (s *ComplaintService) CleaningTasks(ctx context.Context, cleanerID string) ([]models.Complaint, error) {
	status := models.ComplaintInProgress
	tasks, err := s.repo.List(ctx, models.ComplaintFilter{AssignedToID: cleanerID, Status: &status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cleaning tasks")
	}
	return tasks, nil
}

// Export renders the complaint register in the requested format.
func (s *ComplaintService) Export(ctx context.Context, format string) ([]byte, string, error) {
	items, err := s.repo.ListWithTickets(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaints for export")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Type", "Location", "Status", "Ticket", "Created At"},
	}
	for _, item := range items {
		ticketNumber := ""
		if item.Ticket != nil {
			ticketNumber = item.Ticket.TicketNumber
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         item.Complaint.ID,
			"Type":       string(item.Complaint.Type),
			"Location":   item.Complaint.Location,
			"Status":     string(item.Complaint.Status),
			"Ticket":     ticketNumber,
			"Created At": item.Complaint.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	switch format {
	case "csv", "":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := export.NewPDFExporter().Render(dataset, "Complaint Register")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ComplaintService) loadComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	return complaint, nil
}

// invalidateStats drops the cached dashboard aggregates after a write so the
// next stats read recounts. Invalidate is a no-op when caching is disabled.
func (s *ComplaintService) invalidateStats(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, dashboardCacheKey)
}

func (s *ComplaintService) notifyStudent(ctx context.Context, studentID string, fn func(*models.User)) {
	if s.notifier == nil {
		return
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to load student for notification", zap.String("student_id", studentID), zap.Error(err))
		return
	}
	fn(student)
}
