package catalog

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

const maxUploadBytes = 10 << 20

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts catalog reads for any signed-in user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.listProducts) // ?q=&category=&status=&in_stock=true
	r.Get("/products/{id}", h.getProduct)
}

// RegisterAdminRoutes mounts catalog writes, bulk import and export.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Patch("/products/{id}/status", h.setStatus)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Post("/products/import", h.importProducts) // ?format=csv|xlsx, raw body or multipart "file"
	r.Get("/products/import/template", h.template)
	r.Get("/products/export", h.exportProducts) // ?format=csv|xlsx
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ProductFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Status:   Status(q.Get("status")),
	}
	if raw := q.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "invalid in_stock"))
			return
		}
		f.InStockOnly = inStock
	}

	products, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	var req ProductRequest
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, p)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	var req struct {
		Status Status `json:"status"`
	}
	if err := handlerutils.DecodeJSON(r, &req); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	p, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	format := r.URL.Query().Get("format")

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			handlerutils.RespondError(w, r, servererrors.Wrap(servererrors.KindValidation, err, "multipart upload needs a \"file\" part"))
			return
		}
		defer file.Close()
		body = file
		if format == "" && strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
			format = string(FormatXLSX)
		}
	}

	f, err := ParseFormat(format)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	results, err := h.service.Import(r.Context(), body, f)
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	handlerutils.Respond(w, http.StatusOK, results)
}

func (h *Handler) template(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}
	attachment(w, "modelo_produtos.csv", "text/csv")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) exportProducts(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, f); err != nil {
		handlerutils.RespondError(w, r, err)
		return
	}

	if f == FormatXLSX {
		attachment(w, "produtos.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		attachment(w, "produtos.csv", "text/csv")
	}
	_, _ = buf.WriteTo(w)
}

func attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, servererrors.Wrap(servererrors.KindValidation, err, "invalid product id")
	}
	return id, nil
}
