package models

import "time"

// TicketStatus tracks a work order from issue to resolution.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "OPEN"
	TicketResolved TicketStatus = "RESOLVED"
)

// Ticket is a warden-issued work order escalating a complaint to an electrician.
type Ticket struct {
	ID              string       `db:"id" json:"id"`
	TicketNumber    string       `db:"ticket_number" json:"ticket_number"`
	ComplaintID     string       `db:"complaint_id" json:"complaint_id"`
	WardenID        string       `db:"warden_id" json:"warden_id"`
	AssignedToID    string       `db:"assigned_to_id" json:"assigned_to_id"`
	Status          TicketStatus `db:"status" json:"status"`
	ResolutionNotes *string      `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	ResolvedAt      *time.Time   `db:"resolved_at" json:"resolved_at,omitempty"`
}
