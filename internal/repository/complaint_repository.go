package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/facility-api/internal/dto"
	"github.com/hosteldesk/facility-api/internal/models"
)

// ComplaintRepository provides database access for complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a new instance of ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `id, student_id, assigned_to_id, complaint_type, location, description, status, created_at, updated_at`

// Create inserts a new complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = now
	}
	complaint.UpdatedAt = now

	const query = `INSERT INTO complaints (id, student_id, assigned_to_id, complaint_type, location, description, status, created_at, updated_at) VALUES (:id, :student_id, :assigned_to_id, :complaint_type, :location, :description, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// FindByID returns a complaint by identifier.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1 LIMIT 1`, complaintColumns)
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint by id: %w", err)
	}
	return &complaint, nil
}

// List returns complaints matching the filter, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE 1=1`, complaintColumns)
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.AssignedToID != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to_id = $%d", len(args)+1))
		args = append(args, filter.AssignedToID)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("complaint_type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// UpdateStatus moves a complaint to a new status, optionally setting the assignee.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus, assignedToID *string) error {
	const query = `UPDATE complaints SET status = $2, assigned_to_id = COALESCE($3, assigned_to_id), updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, assignedToID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update complaint status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus returns the number of complaints in the given status.
func (r *ComplaintRepository) CountByStatus(ctx context.Context, status models.ComplaintStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM complaints WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count complaints by status: %w", err)
	}
	return count, nil
}

// CountAll returns the total number of complaints.
func (r *ComplaintRepository) CountAll(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM complaints`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return count, nil
}

// complaintTicketRow is the flattened shape of the admin overview join.
type complaintTicketRow struct {
	models.Complaint
	TicketID        *string              `db:"ticket_id"`
	TicketNumber    *string              `db:"ticket_number"`
	TicketWardenID  *string              `db:"ticket_warden_id"`
	TicketAssignee  *string              `db:"ticket_assigned_to_id"`
	TicketStatus    *models.TicketStatus `db:"ticket_status"`
	ResolutionNotes *string              `db:"ticket_resolution_notes"`
	TicketCreatedAt *time.Time           `db:"ticket_created_at"`
	TicketResolved  *time.Time           `db:"ticket_resolved_at"`
}

// ListWithTickets returns every complaint joined with its ticket when one exists.
func (r *ComplaintRepository) ListWithTickets(ctx context.Context) ([]dto.ComplaintWithTicket, error) {
	const query = `SELECT c.id, c.student_id, c.assigned_to_id, c.complaint_type, c.location, c.description, c.status, c.created_at, c.updated_at,
t.id AS ticket_id, t.ticket_number, t.warden_id AS ticket_warden_id, t.assigned_to_id AS ticket_assigned_to_id, t.status AS ticket_status, t.resolution_notes AS ticket_resolution_notes, t.created_at AS ticket_created_at, t.resolved_at AS ticket_resolved_at
FROM complaints c LEFT JOIN tickets t ON t.complaint_id = c.id ORDER BY c.created_at DESC`

	var rows []complaintTicketRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list complaints with tickets: %w", err)
	}

	result := make([]dto.ComplaintWithTicket, 0, len(rows))
	for _, row := range rows {
		item := dto.ComplaintWithTicket{Complaint: row.Complaint}
		if row.TicketID != nil {
			item.Ticket = &models.Ticket{
				ID:              *row.TicketID,
				TicketNumber:    *row.TicketNumber,
				ComplaintID:     row.Complaint.ID,
				WardenID:        *row.TicketWardenID,
				AssignedToID:    *row.TicketAssignee,
				Status:          *row.TicketStatus,
				ResolutionNotes: row.ResolutionNotes,
				CreatedAt:       *row.TicketCreatedAt,
				ResolvedAt:      row.TicketResolved,
			}
		}
		result = append(result, item)
	}
	return result, nil
}
