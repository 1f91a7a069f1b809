package inventory

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

// Handler exposes the stock ledger over HTTP.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the endpoints any signed-in operator may use.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/inventory/movements", h.adjustStock)
	r.Get("/inventory/movements", h.listMovements) // ?product_id=&type=&limit=
}

// RegisterAdminRoutes mounts physical counts and the ledger audit.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/inventory/counts", h.countStock)
	r.Get("/inventory/reconciliation", h.reconcile)
}

type adjustStockResponse struct {
	Result   string    `json:"result"`
	Movement *Movement `json:"movement"`
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if actor := principal.UserIDFromContext(r.Context()); actor != uuid.Nil {
		req.Actor = &actor
	}

	m, err := h.service.AdjustStock(r.Context(), req)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusCreated, adjustStockResponse{Result: Result(nil), Movement: m})
}

// countStock answers 200 with a null movement when the count matched the stock.
func (h *Handler) countStock(w http.ResponseWriter, r *http.Request) {
	var req CountStockRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if actor := principal.UserIDFromContext(r.Context()); actor != uuid.Nil {
		req.Actor = &actor
	}

	m, err := h.service.CountStock(r.Context(), req)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	status := http.StatusOK
	if m != nil {
		status = http.StatusCreated
	}
	handlerutils.Respond(w, status, adjustStockResponse{Result: Result(nil), Movement: m})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := MovementFilter{Type: MovementType(q.Get("type"))}

	if raw := q.Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "invalid product_id"))
			return
		}
		f.ProductID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "invalid limit"))
			return
		}
		f.Limit = limit
	}

	movements, err := h.service.ListMovements(r.Context(), f)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, movements)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.service.Reconcile(r.Context())
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, discrepancies)
}
