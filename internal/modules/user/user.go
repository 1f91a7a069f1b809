package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
)

// Status is the lifecycle state of a user account.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// User is a user profile. New sign-ups start as PENDING operators until an
// admin activates them.
type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive reports whether the user may sign in.
func (u *User) IsActive() bool { return u.Status == StatusActive }

func validRole(r Role) bool { return r == RoleAdmin || r == RoleOperator }

func validStatus(s Status) bool {
	return s == StatusPending || s == StatusActive || s == StatusInactive
}

// SignUpRequest is the payload for self sign-up.
type SignUpRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateAccessRequest changes role and/or status. Nil fields are left as they are.
type UpdateAccessRequest struct {
	Role   *Role   `json:"role,omitempty"`
	Status *Status `json:"status,omitempty"`
}
