package catalog

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
	"github.com/georgemunganga/stockpdv/internal/principal"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
	"github.com/georgemunganga/stockpdv/internal/validate"
)

var (
	ErrProductNotFound  = servererrors.New(servererrors.KindNotFound, "product not found")
	ErrProductInUse     = servererrors.New(servererrors.KindConflict, "product has stock movements and cannot be deleted; deactivate it instead")
	ErrBarcodeTaken     = servererrors.New(servererrors.KindConflict, "barcode already belongs to another product")
	ErrDuplicateProduct = servererrors.New(servererrors.KindConflict, "product already exists")
	ErrInvalidStatus    = servererrors.New(servererrors.KindValidation, "status must be ACTIVE or INACTIVE")
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	// UpdateProduct replaces the descriptive fields. Stock is left alone.
	UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	Import(ctx context.Context, r io.Reader, format Format) ([]ImportResult, error)
	Export(ctx context.Context, w io.Writer, format Format) error
}

// StockCounter is the part of the stock ledger the catalog needs.
type StockCounter interface {
	CountStock(ctx context.Context, req inventory.CountStockRequest) (*inventory.Movement, error)
}

type service struct {
	repo   Repository
	ledger StockCounter
}

// NewService creates a new catalog service.
func NewService(repo Repository, ledger StockCounter) Service {
	return &service{repo: repo, ledger: ledger}
}

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	return s.createProduct(ctx, uuid.New(), req)
}

func (s *service) createProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error) {
	req = normalize(req)
	if err := check(req); err != nil {
		return nil, err
	}

	p := &Product{ID: id, Status: StatusActive}
	apply(p, req)

	var opening *inventory.Movement
	if req.InitialStock > 0 {
		m, err := inventory.NewMovement(inventory.AdjustStockRequest{
			ProductID: id,
			Quantity:  req.InitialStock,
			Type:      inventory.MovementIn,
			Actor:     actorFrom(ctx),
		})
		if err != nil {
			return nil, err
		}
		opening = m
	}

	if err := s.repo.CreateProduct(ctx, p, opening); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"product_id": p.ID, "name": p.Name, "stock": p.CurrentStock}).Info("product created")
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	if f.Status != "" {
		status, err := parseStatus(string(f.Status))
		if err != nil {
			return nil, err
		}
		f.Status = status
	}
	return s.repo.ListProducts(ctx, f)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error) {
	req = normalize(req)
	if err := check(req); err != nil {
		return nil, err
	}

	p := &Product{ID: id}
	apply(p, req)
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Product, error) {
	status, err := parseStatus(string(status))
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"product_id": id, "status": status}).Info("product status changed")
	return s.repo.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	log.WithField("product_id", id).Info("product deleted")
	return nil
}

// countStockTo asks the ledger to bring p to target. The difference is
// worked out under the product's row lock, so a sale racing the import
// cannot leave the stock off target.
func (s *service) countStockTo(ctx context.Context, p *Product, target int) error {
	m, err := s.ledger.CountStock(ctx, inventory.CountStockRequest{
		ProductID: p.ID,
		Count:     target,
		Actor:     actorFrom(ctx),
	})
	if err != nil {
		return err
	}
	if m != nil {
		p.CurrentStock = m.StockAfter
	} else {
		p.CurrentStock = target
	}
	return nil
}

func actorFrom(ctx context.Context) *uuid.UUID {
	if actor := principal.UserIDFromContext(ctx); actor != uuid.Nil {
		return &actor
	}
	return nil
}

func normalize(req ProductRequest) ProductRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Barcode = blankToNil(req.Barcode)
	req.PhotoURL = blankToNil(req.PhotoURL)
	return req
}

func check(req ProductRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	fields := map[string]string{}
	if req.PurchasePrice.IsNegative() {
		fields["purchase_price"] = "must not be negative"
	}
	if req.SalePrice.IsNegative() {
		fields["sale_price"] = "must not be negative"
	}
	if len(fields) > 0 {
		return servererrors.Validation("invalid prices", fields)
	}
	return nil
}

func apply(p *Product, req ProductRequest) {
	p.Name = req.Name
	p.Category = req.Category
	p.Barcode = req.Barcode
	p.PurchasePrice = req.PurchasePrice.Round(2)
	p.SalePrice = req.SalePrice.Round(2)
	p.MinStockThreshold = req.MinStockThreshold
	p.PhotoURL = req.PhotoURL
	p.ExpiryDate = req.ExpiryDate
}

func parseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if status != StatusActive && status != StatusInactive {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}
