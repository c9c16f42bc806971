package models

import "time"

// Notification is an outbound message queued for delivery to a user.
type Notification struct {
	ID             string     `db:"id" json:"id"`
	RecipientID    string     `db:"recipient_id" json:"recipient_id"`
	RecipientEmail string     `db:"recipient_email" json:"recipient_email"`
	Subject        string     `db:"subject" json:"subject"`
	Message        string     `db:"message" json:"message"`
	Sent           bool       `db:"sent" json:"sent"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
