package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/validate"
)

// Handler exposes login and the current-session endpoint.
type Handler struct {
	service    Service
	middleware *Middleware
}

func NewHandler(service Service, middleware *Middleware) *Handler {
	return &Handler{service: service, middleware: middleware}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.With(h.middleware.Authenticate).Get("/me", h.me)
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, session)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	_, u, err := h.service.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, u)
}
