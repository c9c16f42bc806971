package dto

// CreateTicketRequest is the warden payload escalating a complaint.
type CreateTicketRequest struct {
	ComplaintID   string `json:"complaint_id" validate:"required"`
	ElectricianID string `json:"electrician_id" validate:"required"`
}

// ResolveTicketRequest closes a ticket with optional notes.
type ResolveTicketRequest struct {
	ResolutionNotes string `json:"resolution_notes" validate:"max=2000"`
}
