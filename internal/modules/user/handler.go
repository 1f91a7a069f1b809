package user

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public sign-up endpoint.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/users/register", h.registerUser)
}

// RegisterAdminRoutes mounts user management. The caller must already be gated to admins.
func (h *Handler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/users", h.listUsers) // ?status=PENDING
	router.Get("/users/{id}", h.getUser)
	router.Patch("/users/{id}", h.updateAccess)
	router.Post("/users/{id}/activate", h.activate)
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusCreated, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	status := Status(strings.ToUpper(r.URL.Query().Get("status")))
	users, err := h.service.ListUsers(r.Context(), status)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	handlerutils.Respond(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, user)
}

func (h *Handler) updateAccess(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	var req UpdateAccessRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	user, err := h.service.UpdateAccess(r.Context(), principal.UserIDFromContext(r.Context()), id, req)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, user)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	active := StatusActive
	user, err := h.service.UpdateAccess(r.Context(), principal.UserIDFromContext(r.Context()), id,
		UpdateAccessRequest{Status: &active})
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, user)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, servererrors.Wrap(servererrors.KindValidation, err, "invalid user id")
	}
	return id, nil
}
