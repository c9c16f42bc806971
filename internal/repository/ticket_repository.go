package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/facility-api/internal/models"
)

// TicketRepository provides database access for work order tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new instance of TicketRepository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, ticket_number, complaint_id, warden_id, assigned_to_id, status, resolution_notes, created_at, resolved_at`

// FindByID returns a ticket by identifier.
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id = $1 LIMIT 1`, ticketColumns)
	var ticket models.Ticket
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find ticket by id: %w", err)
	}
	return &ticket, nil
}

// FindByComplaintID returns the ticket issued for a complaint, if any.
func (r *TicketRepository) FindByComplaintID(ctx context.Context, complaintID string) (*models.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE complaint_id = $1 LIMIT 1`, ticketColumns)
	var ticket models.Ticket
	if err := r.db.GetContext(ctx, &ticket, query, complaintID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find ticket by complaint: %w", err)
	}
	return &ticket, nil
}

// ListByAssignee returns tickets assigned to an electrician, optionally
// filtered by status, newest first.
func (r *TicketRepository) ListByAssignee(ctx context.Context, assigneeID string, status *models.TicketStatus) ([]models.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE assigned_to_id = $1`, ticketColumns)
	args := []interface{}{assigneeID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	var tickets []models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("list tickets by assignee: %w", err)
	}
	return tickets, nil
}

// CountByStatus returns the number of tickets in the given status.
func (r *TicketRepository) CountByStatus(ctx context.Context, status models.TicketStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count tickets by status: %w", err)
	}
	return count, nil
}

// CreateWithComplaint inserts the ticket and moves the backing complaint to
// the new status in a single transaction.
func (r *TicketRepository) CreateWithComplaint(ctx context.Context, ticket *models.Ticket, complaintStatus models.ComplaintStatus) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	ticket.Status = models.TicketOpen

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create ticket: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	const insertQuery = `INSERT INTO tickets (id, ticket_number, complaint_id, warden_id, assigned_to_id, status, created_at) VALUES (:id, :ticket_number, :complaint_id, :warden_id, :assigned_to_id, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, ticket); err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}

	const updateQuery = `UPDATE complaints SET status = $2, assigned_to_id = $3, updated_at = $4 WHERE id = $1`
	res, err := tx.ExecContext(ctx, updateQuery, ticket.ComplaintID, complaintStatus, ticket.AssignedToID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update complaint for ticket: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create ticket: %w", err)
	}
	commit = true
	return nil
}

// ResolveWithComplaint marks the ticket resolved and completes the backing
// complaint in a single transaction.
func (r *TicketRepository) ResolveWithComplaint(ctx context.Context, ticket *models.Ticket) error {
	now := time.Now().UTC()
	ticket.Status = models.TicketResolved
	ticket.ResolvedAt = &now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resolve ticket: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	const resolveQuery = `UPDATE tickets SET status = $2, resolution_notes = $3, resolved_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, resolveQuery, ticket.ID, ticket.Status, ticket.ResolutionNotes, now); err != nil {
		return fmt.Errorf("resolve ticket: %w", err)
	}

	const completeQuery = `UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, completeQuery, ticket.ComplaintID, models.ComplaintCompleted, now); err != nil {
		return fmt.Errorf("complete complaint for ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolve ticket: %w", err)
	}
	commit = true
	return nil
}
