package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
	appErrors "github.com/hosteldesk/facility-api/pkg/errors"
)

type ticketRepository interface {
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	FindByComplaintID(ctx context.Context, complaintID string) (*models.Ticket, error)
	ListByAssignee(ctx context.Context, assigneeID string, status *models.TicketStatus) ([]models.Ticket, error)
	CreateWithComplaint(ctx context.Context, ticket *models.Ticket, complaintStatus models.ComplaintStatus) error
	ResolveWithComplaint(ctx context.Context, ticket *models.Ticket) error
}

type ticketComplaintRepository interface {
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
}

type ticketUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type ticketNotifier interface {
	NotifyTicketCreated(student, electrician *models.User, ticketNumber string)
	NotifyTicketResolved(student, warden *models.User, ticketNumber string)
}

// TicketService issues and resolves electrician work orders.
type TicketService struct {
	repo       ticketRepository
	complaints ticketComplaintRepository
	users      ticketUserRepository
	notifier   ticketNotifier
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTicketService constructs a TicketService. Ticket writes change complaint
// counts too, so the dashboard cache is invalidated on create and resolve.
func NewTicketService(repo ticketRepository, complaints ticketComplaintRepository, users ticketUserRepository, notifier ticketNotifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TicketService{repo: repo, complaints: complaints, users: users, notifier: notifier, cache: cache, validator: validate, logger: logger}
}

// newTicketNumber builds a human-quotable ticket reference: the issue date
// plus a short unique suffix.
func newTicketNumber(now time.Time) string {
	return fmt.Sprintf("TKT-%s-%s", now.UTC().Format("20060102"), uuid.NewString()[:8])
}

// Create issues a ticket for an electrical complaint, assigns the
// electrician and moves the complaint to in-progress atomically.
func (s *TicketService) Create(ctx context.Context, wardenID string, req dto.CreateTicketRequest) (*models.Ticket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ticket payload")
	}

	complaint, err := s.complaints.FindByID(ctx, req.ComplaintID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}

	if complaint.Type != models.ComplaintTypeElectrician {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tickets can only be issued for electrical complaints")
	}

	if _, err := s.repo.FindByComplaintID(ctx, complaint.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "complaint already has a ticket")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing ticket")
	}

	if complaint.Status != models.ComplaintSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("complaint in status %s cannot be escalated", complaint.Status))
	}

	electrician, err := s.users.FindByID(ctx, req.ElectricianID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "electrician not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load electrician")
	}
	if electrician.Role != models.RoleElectrician {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("user %s is not an electrician", req.ElectricianID))
	}

	ticket := &models.Ticket{
		TicketNumber: newTicketNumber(time.Now()),
		ComplaintID:  complaint.ID,
		WardenID:     wardenID,
		AssignedToID: electrician.ID,
	}
	if err := s.repo.CreateWithComplaint(ctx, ticket, models.ComplaintInProgress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ticket")
	}
	_ = s.cache.Invalidate(ctx, dashboardCacheKey)

	s.notifyTicket(ctx, complaint.StudentID, electrician, func(student *models.User) {
		s.notifier.NotifyTicketCreated(student, electrician, ticket.TicketNumber)
	})

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &wardenID,
		Action:     models.AuditActionTicketCreate,
		Resource:   "ticket",
		ResourceID: &ticket.ID,
		NewValues:  []byte(fmt.Sprintf(`{"ticket_number":%q,"assigned_to":%q}`, ticket.TicketNumber, electrician.ID)),
	}); err != nil {
		s.logger.Warn("failed to record ticket audit log", zap.Error(err))
	}

	return ticket, nil
}

// Resolve closes an open ticket and completes the backing complaint. Only
// the assigned electrician may resolve it.
func (s *TicketService) Resolve(ctx context.Context, electricianID, ticketID string, req dto.ResolveTicketRequest) (*models.Ticket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolve payload")
	}

	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ticket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ticket")
	}

	if ticket.AssignedToID != electricianID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "ticket is not assigned to you")
	}
	if ticket.Status == models.TicketResolved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "ticket is already resolved")
	}

	if req.ResolutionNotes != "" {
		ticket.ResolutionNotes = &req.ResolutionNotes
	}
	if err := s.repo.ResolveWithComplaint(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve ticket")
	}
	_ = s.cache.Invalidate(ctx, dashboardCacheKey)

	complaint, err := s.complaints.FindByID(ctx, ticket.ComplaintID)
	if err != nil {
		s.logger.Warn("failed to load complaint for resolution notification", zap.Error(err))
	} else {
		s.notifyResolved(ctx, complaint.StudentID, ticket.WardenID, ticket.TicketNumber)
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &electricianID,
		Action:     models.AuditActionTicketResolve,
		Resource:   "ticket",
		ResourceID: &ticket.ID,
		NewValues:  []byte(fmt.Sprintf(`{"ticket_number":%q,"status":%q}`, ticket.TicketNumber, ticket.Status)),
	}); err != nil {
		s.logger.Warn("failed to record resolve audit log", zap.Error(err))
	}

	return ticket, nil
}

// ListAssigned returns tickets assigned to the electrician, optionally
// filtered by status.
func (s *TicketService) ListAssigned(ctx context.Context, electricianID string, status *models.TicketStatus) ([]models.Ticket, error) {
	tickets, err := s.repo.ListByAssignee(ctx, electricianID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tickets")
	}
	return tickets, nil
}

func (s *TicketService) notifyTicket(ctx context.Context, studentID string, electrician *models.User, fn func(*models.User)) {
	if s.notifier == nil {
		return
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to load student for ticket notification", zap.String("student_id", studentID), zap.Error(err))
		student = nil
	}
	fn(student)
}

func (s *TicketService) notifyResolved(ctx context.Context, studentID, wardenID, ticketNumber string) {
	if s.notifier == nil {
		return
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to load student for resolve notification", zap.Error(err))
	}
	warden, err := s.users.FindByID(ctx, wardenID)
	if err != nil {
		s.logger.Warn("failed to load warden for resolve notification", zap.Error(err))
	}
	s.notifier.NotifyTicketResolved(student, warden, ticketNumber)
}
