package auth

import (
	"net/http"
	"strings"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/modules/user"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

var (
	errMissingToken = servererrors.New(servererrors.KindAuth, "missing bearer token")
	errForbidden    = servererrors.New(servererrors.KindForbidden, "access denied for this role")
)

// Middleware gates route groups. Authorization is decided here, once per
// route group, never inside handlers.
type Middleware struct {
	service Service
}

func NewMiddleware(service Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate requires a valid bearer token and stores the caller in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			handlerutils.RespondError(w, r, errMissingToken)
			return
		}

		p, _, err := m.service.Authenticate(r.Context(), token)
		if err != nil {
			handlerutils.RespondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(principal.WithPrincipal(r.Context(), p)))
	})
}

// RequireRole only lets callers with one of roles through. It must run after Authenticate.
func (m *Middleware) RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principal.FromContext(r.Context())
			if !ok {
				handlerutils.RespondError(w, r, errMissingToken)
				return
			}
			for _, role := range roles {
				if p.Role == string(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			handlerutils.RespondError(w, r, errForbidden)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
