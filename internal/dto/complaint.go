package dto

import (
	"time"

	"github.com/hosteldesk/facility-api/internal/models"
)

// FileComplaintRequest is the student payload for filing a new complaint.
type FileComplaintRequest struct {
	Type        models.ComplaintType `json:"complaint_type" validate:"required"`
	Location    string               `json:"location" validate:"required,max=120"`
	Description string               `json:"description" validate:"required,max=2000"`
}

// ApproveCleaningRequest assigns a cleaner while moving the complaint forward.
type ApproveCleaningRequest struct {
	CleanerID string `json:"cleaner_id" validate:"required"`
}

// RejectComplaintRequest carries the optional reason for a rejection.
type RejectComplaintRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ComplaintResponse is a complaint enriched with the names joined in listings.
type ComplaintResponse struct {
	models.Complaint
	StudentName  string  `json:"student_name,omitempty"`
	AssignedName *string `json:"assigned_name,omitempty"`
}

// ComplaintWithTicket pairs a complaint with its ticket for the admin overview.
type ComplaintWithTicket struct {
	Complaint models.Complaint `json:"complaint"`
	Ticket    *models.Ticket   `json:"ticket,omitempty"`
}

// ComplaintExportRow flattens a complaint for CSV and PDF export.
type ComplaintExportRow struct {
	ID          string
	Type        string
	Location    string
	Description string
	Status      string
	StudentName string
	CreatedAt   time.Time
}
