package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/stockpdv/internal/validate"
)

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req SignUpRequest) (*User, error) {
	return s.create(ctx, req, RoleOperator, StatusPending)
}

func (s *service) CreateAdmin(ctx context.Context, req SignUpRequest) (*User, error) {
	return s.create(ctx, req, RoleAdmin, StatusActive)
}

func (s *service) create(ctx context.Context, req SignUpRequest, role Role, status Status) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Status:       status,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": role, "status": status}).Info("user registered")
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context, status Status) ([]*User, error) {
	if status != "" && !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListUsers(ctx, status)
}

func (s *service) UpdateAccess(ctx context.Context, actorID, id uuid.UUID, req UpdateAccessRequest) (*User, error) {
	if req.Role == nil && req.Status == nil {
		return nil, ErrNothingToApply
	}
	if actorID == id {
		return nil, ErrSelfLockout
	}

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role, status := u.Role, u.Status
	if req.Role != nil {
		role = Role(strings.ToUpper(string(*req.Role)))
		if !validRole(role) {
			return nil, ErrInvalidRole
		}
	}
	if req.Status != nil {
		status = Status(strings.ToUpper(string(*req.Status)))
		if !validStatus(status) {
			return nil, ErrInvalidStatus
		}
	}

	if err := s.repo.UpdateAccess(ctx, id, role, status); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  id,
		"actor_id": actorID,
		"role":     role,
		"status":   status,
	}).Info("user access updated")

	u.Role, u.Status = role, status
	return u, nil
}
