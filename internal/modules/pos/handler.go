package pos

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
	"github.com/georgemunganga/stockpdv/internal/validate"
)

var errNoSession = servererrors.New(servererrors.KindAuth, "no session")

// Handler exposes the point of sale. Every route needs an authenticated
// session; the cart is the caller's own.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pos", func(r chi.Router) {
		r.Get("/products", h.sellableProducts) // ?q=

		r.Get("/cart", h.cart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addItem)
		r.Put("/cart/items/{product_id}", h.setQuantity)
		r.Delete("/cart/items/{product_id}", h.removeItem)
		r.Post("/cart/items/{product_id}/increment", h.increment)
		r.Post("/cart/items/{product_id}/decrement", h.decrement)
		r.Post("/cart/payment", h.proceedToPayment)
		r.Delete("/cart/payment", h.cancelPayment)

		r.Post("/checkout", h.checkout)

		r.Get("/sales", h.listSales) // ?from=&to=&limit=
		r.Get("/sales/{id}", h.getSale)
	})
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

func (h *Handler) sellableProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.SellableProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, products)
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sid string) (CartView, error) {
		return h.service.Cart(r.Context(), sid)
	})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sid string) (CartView, error) {
		return h.service.ClearCart(r.Context(), sid)
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	h.withSession(w, r, func(sid string) (CartView, error) {
		return h.service.AddItem(r.Context(), sid, req.ProductID, req.Quantity)
	})
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r, "product_id")
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	var req setQuantityRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	h.withSession(w, r, func(sid string) (CartView, error) {
		return h.service.SetItemQuantity(r.Context(), sid, id, req.Quantity)
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, h.service.RemoveItem)
}

func (h *Handler) increment(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, h.service.IncrementItem)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, h.service.DecrementItem)
}

func (h *Handler) proceedToPayment(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sid string) (CartView, error) {
		return h.service.ProceedToPayment(r.Context(), sid)
	})
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sid string) (CartView, error) {
		return h.service.CancelPayment(r.Context(), sid)
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		handlerutils.RespondError(w, r, errNoSession)
		return
	}
	var req checkoutRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	cashier := p.UserID
	result, err := h.service.Checkout(r.Context(), p.SessionID, &cashier, req.PaymentMethod)
	switch {
	case err != nil && result != nil:
		// partial: some lines were committed, the rest are still in the cart
		handlerutils.Respond(w, servererrors.StatusFor(servererrors.KindOf(err)), result)
	case err != nil:
		handlerutils.RespondError(w, r, err)
	default:
		handlerutils.Respond(w, http.StatusCreated, result)
	}
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		f   SaleFilter
		err error
	)
	if f.From, err = parseTime(q.Get("from")); err != nil {
		handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "invalid from"))
		return
	}
	if f.To, err = parseTime(q.Get("to")); err != nil {
		handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "invalid to"))
		return
	}
	if raw := q.Get("limit"); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil {
			handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "invalid limit"))
			return
		}
	}

	sales, err := h.service.ListSales(r.Context(), f)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r, "id")
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, sale)
}

func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(sessionID string) (CartView, error)) {
	p, ok := principal.FromContext(r.Context())
	if !ok || p.SessionID == "" {
		handlerutils.RespondError(w, r, errNoSession)
		return
	}
	view, err := fn(p.SessionID)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, view)
}

type lineOp func(ctx context.Context, sessionID string, productID uuid.UUID) (CartView, error)

func (h *Handler) withProduct(w http.ResponseWriter, r *http.Request, op lineOp) {
	id, err := parseUUID(r, "product_id")
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	h.withSession(w, r, func(sid string) (CartView, error) {
		return op(r.Context(), sid, id)
	})
}

func parseUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, servererrors.Wrap(servererrors.KindValidation, err, "invalid "+param)
	}
	return id, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
