package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

var (
	ErrUserNotFound   = servererrors.New(servererrors.KindNotFound, "user not found")
	ErrEmailTaken     = servererrors.New(servererrors.KindConflict, "email is already registered")
	ErrInvalidRole    = servererrors.New(servererrors.KindValidation, "role must be ADMIN or OPERATOR")
	ErrInvalidStatus  = servererrors.New(servererrors.KindValidation, "status must be PENDING, ACTIVE or INACTIVE")
	ErrSelfLockout    = servererrors.New(servererrors.KindConflict, "admins cannot change their own role or status")
	ErrNothingToApply = servererrors.New(servererrors.KindValidation, "role or status is required")
)

// Service defines the interface for user-related business logic.
type Service interface {
	// RegisterUser signs up a PENDING operator.
	RegisterUser(ctx context.Context, req SignUpRequest) (*User, error)
	// CreateAdmin creates an ACTIVE admin. Used to bootstrap a fresh installation.
	CreateAdmin(ctx context.Context, req SignUpRequest) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, status Status) ([]*User, error)
	// UpdateAccess lets an admin change another user's role and status.
	UpdateAccess(ctx context.Context, actorID, id uuid.UUID, req UpdateAccessRequest) (*User, error)
}
