package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/models"
	"github.com/hosteldesk/facility-api/pkg/jobs"
	"github.com/hosteldesk/facility-api/pkg/mailer"
)

// Notification subjects and message templates. Message bodies embed the
// complaint type or ticket number the recipient needs to act on.
const (
	subjectComplaintFiled    = "New Complaint Submitted"
	subjectComplaintProgress = "Complaint Update"
	subjectTicketIssued      = "Ticket Update"
)

// NotificationService queues outbound notifications and delivers them through
// the mail sender on background workers. Delivery never blocks request flow.
type NotificationService struct {
	queue  *jobs.Queue
	sender mailer.Sender
	logger *zap.Logger

	enabled bool
	sent    atomic.Int64
	dropped atomic.Int64
}

// NotificationConfig configures the outbound notification pipeline.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NewNotificationService constructs the service and its backing queue.
func NewNotificationService(sender mailer.Sender, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{sender: sender, logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// SentCount reports how many notifications were delivered since startup.
func (s *NotificationService) SentCount() int64 {
	return s.sent.Load()
}

// Notify queues a single notification for the recipient.
func (s *NotificationService) Notify(recipient *models.User, subject, message string) {
	if !s.enabled || recipient == nil {
		return
	}
	notification := models.Notification{
		ID:             uuid.NewString(),
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		Subject:        subject,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.queue.Enqueue(jobs.Job{ID: notification.ID, Type: "notification", Payload: notification}); err != nil {
		s.dropped.Add(1)
		s.logger.Warn("failed to enqueue notification",
			zap.String("recipient", recipient.ID),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// NotifyAll queues the same notification for every recipient.
func (s *NotificationService) NotifyAll(recipients []models.User, subject, message string) {
	for i := range recipients {
		s.Notify(&recipients[i], subject, message)
	}
}

// NotifyComplaintFiled alerts wardens that a student filed a complaint.
func (s *NotificationService) NotifyComplaintFiled(wardens []models.User, complaintType models.ComplaintType) {
	s.NotifyAll(wardens, subjectComplaintFiled, fmt.Sprintf("New Complaint Submitted: %s", complaintType))
}

// NotifyComplaintInProgress tells the student their complaint was picked up.
func (s *NotificationService) NotifyComplaintInProgress(student *models.User) {
	s.Notify(student, subjectComplaintProgress, "Your Complaint is In Progress")
}

// NotifyComplaintResolved tells the student their complaint was completed.
func (s *NotificationService) NotifyComplaintResolved(student *models.User) {
	s.Notify(student, subjectComplaintProgress, "Your Complaint has been Resolved")
}

// NotifyTicketCreated informs the student and the assigned electrician.
func (s *NotificationService) NotifyTicketCreated(student, electrician *models.User, ticketNumber string) {
	s.Notify(student, subjectTicketIssued, fmt.Sprintf("Ticket Generated for Your Complaint: %s", ticketNumber))
	s.Notify(electrician, subjectTicketIssued, fmt.Sprintf("New Ticket Assigned to You: %s", ticketNumber))
}

// NotifyTicketResolved informs the student and the issuing warden.
func (s *NotificationService) NotifyTicketResolved(student, warden *models.User, ticketNumber string) {
	message := fmt.Sprintf("Ticket Resolved: %s", ticketNumber)
	s.Notify(student, subjectTicketIssued, message)
	s.Notify(warden, subjectTicketIssued, message)
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	if err := s.sender.Send(notification.RecipientEmail, notification.Subject, notification.Message); err != nil {
		return fmt.Errorf("send notification %s: %w", notification.ID, err)
	}

	s.sent.Add(1)
	s.logger.Debug("notification delivered",
		zap.String("notification_id", notification.ID),
		zap.String("recipient", notification.RecipientID))
	return nil
}
