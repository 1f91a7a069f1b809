package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/stockpdv/internal/modules/user"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

type stubUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func (s *stubUsers) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (s *stubUsers) GetUserByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsers) ListUsers(context.Context, user.Status) ([]*user.User, error) {
	return nil, nil
}

func (s *stubUsers) UpdateAccess(_ context.Context, id uuid.UUID, role user.Role, status user.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role, u.Status = role, status
	return nil
}

func newStubUsers(t *testing.T, accounts ...*user.User) *stubUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	s := &stubUsers{users: make(map[uuid.UUID]*user.User)}
	for _, u := range accounts {
		u.PasswordHash = string(hash)
		s.users[u.ID] = u
	}
	return s
}

func account(email string, role user.Role, status user.Status) *user.User {
	return &user.User{ID: uuid.New(), FullName: email, Email: email, Role: role, Status: status}
}

func TestLogin(t *testing.T) {
	active := account("op@example.com", user.RoleOperator, user.StatusActive)
	pending := account("new@example.com", user.RoleOperator, user.StatusPending)
	inactive := account("old@example.com", user.RoleOperator, user.StatusInactive)
	svc := NewService(newStubUsers(t, active, pending, inactive), "test-secret", time.Hour)
	ctx := context.Background()

	session, err := svc.Login(ctx, "OP@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, active.ID, session.User.ID)

	p, u, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, active.ID, p.UserID)
	assert.Equal(t, session.SessionID, p.SessionID)
	assert.Equal(t, string(user.RoleOperator), p.Role)
	assert.Equal(t, active.Email, u.Email)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"wrong password", "op@example.com", "nope", ErrInvalidCredentials},
		{"unknown email", "ghost@example.com", "s3cret-pass", ErrInvalidCredentials},
		{"pending account", "new@example.com", "s3cret-pass", ErrAccountPending},
		{"inactive account", "old@example.com", "s3cret-pass", ErrAccountInactive},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, servererrors.KindAuth, servererrors.KindOf(err))
		})
	}
}

func TestAuthenticateRereadsProfile(t *testing.T) {
	op := account("op@example.com", user.RoleOperator, user.StatusActive)
	repo := newStubUsers(t, op)
	svc := NewService(repo, "test-secret", time.Hour)
	ctx := context.Background()

	session, err := svc.Login(ctx, "op@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateAccess(ctx, op.ID, user.RoleAdmin, user.StatusActive))
	p, _, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, string(user.RoleAdmin), p.Role)

	require.NoError(t, repo.UpdateAccess(ctx, op.ID, user.RoleAdmin, user.StatusInactive))
	_, _, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	op := account("op@example.com", user.RoleOperator, user.StatusActive)
	repo := newStubUsers(t, op)
	ctx := context.Background()

	expired := &service{userRepo: repo, jwtKey: []byte("test-secret"), ttl: time.Minute,
		now: func() time.Time { return time.Now().Add(-time.Hour) }}
	old, err := expired.Login(ctx, "op@example.com", "s3cret-pass")
	require.NoError(t, err)

	other := NewService(repo, "another-secret", time.Hour)
	foreign, err := other.Login(ctx, "op@example.com", "s3cret-pass")
	require.NoError(t, err)

	svc := NewService(repo, "test-secret", time.Hour)
	for name, token := range map[string]string{
		"expired":      old.Token,
		"wrong secret": foreign.Token,
		"garbage":      "not-a-jwt",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Authenticate(ctx, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	admin := account("admin@example.com", user.RoleAdmin, user.StatusActive)
	op := account("op@example.com", user.RoleOperator, user.StatusActive)
	svc := NewService(newStubUsers(t, admin, op), "test-secret", time.Hour)
	mw := NewMiddleware(svc)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Get("/who", func(w http.ResponseWriter, r *http.Request) {
			p, _ := principal.FromContext(r.Context())
			_, _ = w.Write([]byte(p.Role))
		})
		r.With(mw.RequireRole(user.RoleAdmin)).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	tokenFor := func(email string) string {
		s, err := svc.Login(context.Background(), email, "s3cret-pass")
		require.NoError(t, err)
		return s.Token
	}
	adminToken, opToken := tokenFor("admin@example.com"), tokenFor("op@example.com")

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"no token", "/who", "", http.StatusUnauthorized},
		{"operator identity", "/who", opToken, http.StatusOK},
		{"operator on admin route", "/admin", opToken, http.StatusForbidden},
		{"admin on admin route", "/admin", adminToken, http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
