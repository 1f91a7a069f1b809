package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines user profile storage.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, status Status) ([]*User, error)
	UpdateAccess(ctx context.Context, id uuid.UUID, role Role, status Status) error
}
