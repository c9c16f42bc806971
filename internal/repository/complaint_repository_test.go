package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/facility-api/internal/models"
)

func newComplaintMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestComplaintRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectExec("INSERT INTO complaints").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	complaint := &models.Complaint{
		StudentID:   "stu-1",
		Type:        models.ComplaintTypeCleaner,
		Location:    "Block A Room 101",
		Description: "Room needs cleaning",
		Status:      models.ComplaintSubmitted,
	}
	err := repo.Create(context.Background(), complaint)
	require.NoError(t, err)
	assert.NotEmpty(t, complaint.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "assigned_to_id", "complaint_type", "location", "description", "status", "created_at", "updated_at"}).
		AddRow("c-1", "stu-1", nil, "CLEANER", "Block A Room 101", "Room needs cleaning", "SUBMITTED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, assigned_to_id, complaint_type, location, description, status, created_at, updated_at FROM complaints WHERE id = $1 LIMIT 1")).
		WithArgs("c-1").
		WillReturnRows(rows)

	complaint, err := repo.FindByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintSubmitted, complaint.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery("SELECT .* FROM complaints WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestComplaintRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "assigned_to_id", "complaint_type", "location", "description", "status", "created_at", "updated_at"}).
		AddRow("c-1", "stu-1", nil, "ELECTRICIAN", "Block B Room 7", "Fan not working", "SUBMITTED", time.Now(), time.Now()).
		AddRow("c-2", "stu-1", nil, "CLEANER", "Block B Room 7", "Dusty corridor", "COMPLETED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, assigned_to_id, complaint_type, location, description, status, created_at, updated_at FROM complaints WHERE 1=1 AND student_id = $1 ORDER BY created_at DESC")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	complaints, err := repo.List(context.Background(), models.ComplaintFilter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, complaints, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryListByAssigneeAndStatus(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	status := models.ComplaintInProgress
	rows := sqlmock.NewRows([]string{"id", "student_id", "assigned_to_id", "complaint_type", "location", "description", "status", "created_at", "updated_at"}).
		AddRow("c-1", "stu-1", "cln-1", "CLEANER", "Block A Room 101", "Room needs cleaning", "IN_PROGRESS", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, assigned_to_id, complaint_type, location, description, status, created_at, updated_at FROM complaints WHERE 1=1 AND assigned_to_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs("cln-1", status).
		WillReturnRows(rows)

	complaints, err := repo.List(context.Background(), models.ComplaintFilter{AssignedToID: "cln-1", Status: &status})
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	assert.Equal(t, "cln-1", *complaints[0].AssignedToID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	cleanerID := "cln-1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints SET status = $2, assigned_to_id = COALESCE($3, assigned_to_id), updated_at = $4 WHERE id = $1")).
		WithArgs("c-1", models.ComplaintInProgress, &cleanerID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "c-1", models.ComplaintInProgress, &cleanerID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectExec("UPDATE complaints SET status").
		WithArgs("missing", models.ComplaintRejected, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.ComplaintRejected, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestComplaintRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM complaints WHERE status = $1")).
		WithArgs(models.ComplaintSubmitted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM complaints")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	pending, err := repo.CountByStatus(context.Background(), models.ComplaintSubmitted)
	require.NoError(t, err)
	assert.Equal(t, 3, pending)

	total, err := repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryListWithTickets(t *testing.T) {
	db, mock, cleanup := newComplaintMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "assigned_to_id", "complaint_type", "location", "description", "status", "created_at", "updated_at",
		"ticket_id", "ticket_number", "ticket_warden_id", "ticket_assigned_to_id", "ticket_status", "ticket_resolution_notes", "ticket_created_at", "ticket_resolved_at",
	}).
		AddRow("c-1", "stu-1", "ele-1", "ELECTRICIAN", "Block B Room 7", "Fan not working", "IN_PROGRESS", now, now,
			"t-1", "TKT-20260830-abcd1234", "war-1", "ele-1", "OPEN", nil, now, nil).
		AddRow("c-2", "stu-2", nil, "CLEANER", "Block C", "Spill in corridor", "SUBMITTED", now, now,
			nil, nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("SELECT c.id, c.student_id").WillReturnRows(rows)

	result, err := repo.ListWithTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.NotNil(t, result[0].Ticket)
	assert.Equal(t, "TKT-20260830-abcd1234", result[0].Ticket.TicketNumber)
	assert.Nil(t, result[1].Ticket)
	assert.NoError(t, mock.ExpectationsWereMet())
}
