package auth

import (
	"context"
	"time"

	"github.com/georgemunganga/stockpdv/internal/modules/user"
	"github.com/georgemunganga/stockpdv/internal/principal"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login checks credentials and issues a session token for ACTIVE users.
	Login(ctx context.Context, email, password string) (*Session, error)
	// Authenticate resolves a token into the caller, re-reading the profile so
	// that role and status changes apply immediately.
	Authenticate(ctx context.Context, token string) (*principal.Principal, *user.User, error)
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a signed token bound to one login.
type Session struct {
	Token     string     `json:"token"`
	SessionID string     `json:"session_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}
