package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/stockpdv/internal/modules/user"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

var (
	ErrInvalidCredentials = servererrors.New(servererrors.KindAuth, "invalid credentials")
	ErrAccountPending     = servererrors.New(servererrors.KindAuth, "account is pending approval by an administrator")
	ErrAccountInactive    = servererrors.New(servererrors.KindAuth, "account is inactive")
	ErrInvalidToken       = servererrors.New(servererrors.KindAuth, "invalid or expired token")
)

// Claims are the JWT claims issued at login. Id carries the session id.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

type service struct {
	userRepo user.Repository
	jwtKey   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &service{userRepo: userRepo, jwtKey: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := checkStatus(u); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	expirationTime := s.now().Add(s.ttl)
	claims := &Claims{
		Role: string(u.Role),
		StandardClaims: jwt.StandardClaims{
			Id:        sessionID,
			Subject:   u.ID.String(),
			IssuedAt:  s.now().Unix(),
			ExpiresAt: expirationTime.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": u.ID, "session_id": sessionID}).Info("user signed in")
	return &Session{Token: tokenString, SessionID: sessionID, ExpiresAt: expirationTime, User: u}, nil
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (*principal.Principal, *user.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.Id == "" {
		return nil, nil, ErrInvalidToken
	}

	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	if err := checkStatus(u); err != nil {
		return nil, nil, err
	}

	return &principal.Principal{
		UserID:    u.ID,
		SessionID: claims.Id,
		Role:      string(u.Role),
	}, u, nil
}

func checkStatus(u *user.User) error {
	switch u.Status {
	case user.StatusActive:
		return nil
	case user.StatusPending:
		return ErrAccountPending
	default:
		return ErrAccountInactive
	}
}
