package reports

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

// Handler exposes the reports. Callers must already be gated to admins.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", h.dashboard)
		r.Get("/low-stock", h.lowStock)
		r.Get("/near-expiry", h.nearExpiry) // ?days=30
		r.Get("/profit", h.profit)
		r.Get("/stock", h.stock)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	respond(w, r, d, err)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context())
	respond(w, r, rows, err)
}

func (h *Handler) nearExpiry(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		var err error
		if days, err = strconv.Atoi(raw); err != nil || days < 0 {
			handlerutils.RespondError(w, r, servererrors.Validation("invalid days",
				map[string]string{"days": "must be a non-negative whole number"}))
			return
		}
	}
	rows, err := h.service.NearExpiry(r.Context(), days)
	respond(w, r, rows, err)
}

func (h *Handler) profit(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProfitPotential(r.Context())
	respond(w, r, report, err)
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Stock(r.Context())
	respond(w, r, rows, err)
}

func respond(w http.ResponseWriter, r *http.Request, body interface{}, err error) {
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, body)
}
