package models

import "time"

// ComplaintType routes a complaint to the trade responsible for it.
type ComplaintType string

const (
	ComplaintTypeCleaner     ComplaintType = "CLEANER"
	ComplaintTypeElectrician ComplaintType = "ELECTRICIAN"
)

// Valid reports whether the complaint type is a recognised category.
func (t ComplaintType) Valid() bool {
	switch t {
	case ComplaintTypeCleaner, ComplaintTypeElectrician:
		return true
	}
	return false
}

// ComplaintStatus tracks a complaint through its lifecycle.
type ComplaintStatus string

const (
	ComplaintSubmitted       ComplaintStatus = "SUBMITTED"
	ComplaintInProgress      ComplaintStatus = "IN_PROGRESS"
	ComplaintTicketGenerated ComplaintStatus = "TICKET_GENERATED"
	ComplaintCompleted       ComplaintStatus = "COMPLETED"
	ComplaintRejected        ComplaintStatus = "REJECTED"
)

// Terminal reports whether no further transitions are allowed from the status.
func (s ComplaintStatus) Terminal() bool {
	return s == ComplaintCompleted || s == ComplaintRejected
}

var complaintTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintSubmitted:       {ComplaintInProgress, ComplaintRejected},
	ComplaintInProgress:      {ComplaintTicketGenerated, ComplaintCompleted, ComplaintRejected},
	ComplaintTicketGenerated: {ComplaintCompleted, ComplaintRejected},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s ComplaintStatus) CanTransition(next ComplaintStatus) bool {
	for _, allowed := range complaintTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Complaint is a student-filed maintenance or service request.
type Complaint struct {
	ID           string          `db:"id" json:"id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	AssignedToID *string         `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	Type         ComplaintType   `db:"complaint_type" json:"complaint_type"`
	Location     string          `db:"location" json:"location"`
	Description  string          `db:"description" json:"description"`
	Status       ComplaintStatus `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ComplaintFilter captures query criteria for listing complaints.
type ComplaintFilter struct {
	StudentID    string
	AssignedToID string
	Type         *ComplaintType
	Status       *ComplaintStatus
}
