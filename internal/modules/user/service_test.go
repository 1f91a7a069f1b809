package user

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

type mockRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepository) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockRepository) ListUsers(_ context.Context, status Status) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, u := range m.users {
		if status == "" || u.Status == status {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateAccess(_ context.Context, id uuid.UUID, role Role, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Role, u.Status = role, status
	return nil
}

func TestRegisterUser(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	u, err := svc.RegisterUser(context.Background(), SignUpRequest{
		FullName: "Maria Souza",
		Email:    " Maria@Example.com ",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", u.Email)
	assert.Equal(t, RoleOperator, u.Role)
	assert.Equal(t, StatusPending, u.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.RegisterUser(context.Background(), SignUpRequest{
			FullName: "Other", Email: "maria@example.com", Password: "another-pass",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := svc.RegisterUser(context.Background(), SignUpRequest{
			FullName: "Other", Email: "nope", Password: "another-pass",
		})
		assert.Equal(t, servererrors.KindValidation, servererrors.KindOf(err))
		assert.Contains(t, servererrors.FieldsOf(err), "email")
	})
}

func TestCreateAdmin(t *testing.T) {
	svc := NewService(newMockRepository())

	u, err := svc.CreateAdmin(context.Background(), SignUpRequest{
		FullName: "Root", Email: "root@example.com", Password: "super-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.True(t, u.IsActive())
}

func TestUpdateAccess(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, SignUpRequest{FullName: "Admin", Email: "admin@example.com", Password: "12345678"})
	require.NoError(t, err)
	op, err := svc.RegisterUser(ctx, SignUpRequest{FullName: "Op", Email: "op@example.com", Password: "12345678"})
	require.NoError(t, err)

	t.Run("activate", func(t *testing.T) {
		active := StatusActive
		u, err := svc.UpdateAccess(ctx, admin.ID, op.ID, UpdateAccessRequest{Status: &active})
		require.NoError(t, err)
		assert.Equal(t, StatusActive, u.Status)
		assert.Equal(t, RoleOperator, u.Role)

		stored, _ := repo.GetUserByID(ctx, op.ID)
		assert.Equal(t, StatusActive, stored.Status)
	})

	t.Run("promote with lowercase role", func(t *testing.T) {
		role := Role("admin")
		u, err := svc.UpdateAccess(ctx, admin.ID, op.ID, UpdateAccessRequest{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, u.Role)
	})

	t.Run("invalid role", func(t *testing.T) {
		role := Role("OWNER")
		_, err := svc.UpdateAccess(ctx, admin.ID, op.ID, UpdateAccessRequest{Role: &role})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("self lockout", func(t *testing.T) {
		inactive := StatusInactive
		_, err := svc.UpdateAccess(ctx, admin.ID, admin.ID, UpdateAccessRequest{Status: &inactive})
		assert.ErrorIs(t, err, ErrSelfLockout)
	})

	t.Run("unknown user", func(t *testing.T) {
		inactive := StatusInactive
		_, err := svc.UpdateAccess(ctx, admin.ID, uuid.New(), UpdateAccessRequest{Status: &inactive})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("empty request", func(t *testing.T) {
		_, err := svc.UpdateAccess(ctx, admin.ID, op.ID, UpdateAccessRequest{})
		assert.ErrorIs(t, err, ErrNothingToApply)
	})
}
