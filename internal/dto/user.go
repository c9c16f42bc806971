package dto

import "github.com/hosteldesk/facility-api/internal/models"

// RegisterStudentRequest is the self-service signup payload. The role is
// always STUDENT; privileged accounts are created by an admin.
type RegisterStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,max=120"`
}

// CreateUserRequest is the admin payload for provisioning any account.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"full_name" validate:"required,max=120"`
	Role     models.UserRole `json:"role" validate:"required"`
}
