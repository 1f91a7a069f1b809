package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

const defaultSalesLimit = 100

var (
	ErrSaleNotFound       = servererrors.New(servererrors.KindNotFound, "sale not found")
	ErrProductInactive    = servererrors.New(servererrors.KindConflict, "product is inactive and cannot be sold")
	ErrProductOutOfStock  = servererrors.New(servererrors.KindInsufficientStock, "product is out of stock")
	ErrCheckoutIncomplete = servererrors.New(servererrors.KindInsufficientStock, "checkout failed for some items")
)

// Service is the point of sale: a cart per session and the checkout that
// turns it into stock movements.
type Service interface {
	Cart(ctx context.Context, sessionID string) (CartView, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (CartView, error)
	IncrementItem(ctx context.Context, sessionID string, productID uuid.UUID) (CartView, error)
	DecrementItem(ctx context.Context, sessionID string, productID uuid.UUID) (CartView, error)
	SetItemQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (CartView, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (CartView, error)
	ClearCart(ctx context.Context, sessionID string) (CartView, error)
	ProceedToPayment(ctx context.Context, sessionID string) (CartView, error)
	CancelPayment(ctx context.Context, sessionID string) (CartView, error)

	// Checkout takes every line out of stock, one ledger call per line in
	// cart order. Lines that fail stay in the cart and the returned error
	// lists their reasons; committed lines are never rolled back.
	Checkout(ctx context.Context, sessionID string, cashier *uuid.UUID, paymentMethod string) (*CheckoutResult, error)

	GetSale(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, f SaleFilter) ([]*Sale, error)
	// SellableProducts lists active products with stock, ordered by name.
	SellableProducts(ctx context.Context, query string) ([]*catalog.Product, error)
}

// Catalog is the part of the product catalog the point of sale reads.
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	ListProducts(ctx context.Context, f catalog.ProductFilter) ([]*catalog.Product, error)
}

// Ledger is the part of the stock ledger checkout writes to.
type Ledger interface {
	AdjustStock(ctx context.Context, req inventory.AdjustStockRequest) (*inventory.Movement, error)
}

type service struct {
	repo     Repository
	catalog  Catalog
	ledger   Ledger
	sessions *SessionStore
}

// NewService creates the point of sale service.
func NewService(repo Repository, catalog Catalog, ledger Ledger, sessions *SessionStore) Service {
	return &service{repo: repo, catalog: catalog, ledger: ledger, sessions: sessions}
}

func (s *service) edit(sessionID string, fn func(*Cart) error) (CartView, error) {
	var view CartView
	err := s.sessions.With(sessionID, func(c *Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		view = c.View()
		return nil
	})
	return view, err
}

func (s *service) Cart(_ context.Context, sessionID string) (CartView, error) {
	return s.edit(sessionID, func(*Cart) error { return nil })
}

func (s *service) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (CartView, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	if !p.IsActive() {
		return CartView{}, ErrProductInactive
	}
	if p.CurrentStock <= 0 {
		return CartView{}, ErrProductOutOfStock
	}
	return s.edit(sessionID, func(c *Cart) error {
		return c.Add(p.ID, p.Name, p.SalePrice, quantity)
	})
}

func (s *service) IncrementItem(_ context.Context, sessionID string, productID uuid.UUID) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error { return c.Increment(productID) })
}

func (s *service) DecrementItem(_ context.Context, sessionID string, productID uuid.UUID) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error { return c.Decrement(productID) })
}

func (s *service) SetItemQuantity(_ context.Context, sessionID string, productID uuid.UUID, quantity int) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error { return c.SetQuantity(productID, quantity) })
}

func (s *service) RemoveItem(_ context.Context, sessionID string, productID uuid.UUID) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error { return c.Remove(productID) })
}

func (s *service) ClearCart(_ context.Context, sessionID string) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

func (s *service) ProceedToPayment(_ context.Context, sessionID string) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error { return c.ProceedToPayment() })
}

func (s *service) CancelPayment(_ context.Context, sessionID string) (CartView, error) {
	return s.edit(sessionID, func(c *Cart) error { return c.CancelPayment() })
}

func (s *service) Checkout(ctx context.Context, sessionID string, cashier *uuid.UUID, paymentMethod string) (*CheckoutResult, error) {
	pm, err := inventory.ParsePaymentMethod(paymentMethod)
	if err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err = s.sessions.With(sessionID, func(c *Cart) error {
		if c.State() != CartAwaitingPayment {
			return ErrNotAwaitingPayment
		}
		result = s.commit(ctx, c, cashier, pm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Failures) > 0 {
		reasons := make([]string, 0, len(result.Failures))
		for _, f := range result.Failures {
			reasons = append(reasons, fmt.Sprintf("%s: %s", f.Name, f.Reason))
		}
		err = fmt.Errorf("%w: %s", ErrCheckoutIncomplete, strings.Join(reasons, "; "))
		result.Result = err.Error()
		return result, err
	}
	return result, nil
}

// commit runs the ledger calls for every line and settles the cart. The
// ledger calls ignore cancellation of ctx so a dropped client cannot stop a
// checkout halfway.
func (s *service) commit(ctx context.Context, c *Cart, cashier *uuid.UUID, pm inventory.PaymentMethod) *CheckoutResult {
	ctx = context.WithoutCancel(ctx)
	sale := &Sale{
		ID:            uuid.New(),
		CashierID:     cashier,
		PaymentMethod: pm,
		Total:         decimal.Zero,
		Failures:      LineFailures{},
	}

	committed := make(map[uuid.UUID]bool)
	for _, line := range c.Lines() {
		_, err := s.ledger.AdjustStock(ctx, inventory.AdjustStockRequest{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			Type:          inventory.MovementOut,
			PaymentMethod: &pm,
			Actor:         cashier,
			SaleID:        &sale.ID,
		})
		if err != nil {
			sale.Failures = append(sale.Failures, LineFailure{
				ProductID: line.ProductID,
				Name:      line.Name,
				Quantity:  line.Quantity,
				Reason:    inventory.Result(err),
			})
			continue
		}
		committed[line.ProductID] = true
		sale.Lines = append(sale.Lines, SaleLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.Total(),
		})
		sale.Total = sale.Total.Add(line.Total())
	}
	c.settle(committed)

	result := &CheckoutResult{Result: inventory.ResultSuccess, Failures: sale.Failures}
	entry := log.WithFields(log.Fields{
		"sale_id":        sale.ID,
		"payment_method": pm,
		"committed":      len(sale.Lines),
		"failed":         len(sale.Failures),
		"total":          sale.Total.StringFixed(2),
	})

	if len(sale.Lines) > 0 {
		sale.Status = SaleCompleted
		if len(sale.Failures) > 0 {
			sale.Status = SalePartial
		}
		// stock already moved; a lost sale record is logged, not undone
		if err := s.repo.CreateSale(ctx, sale); err != nil {
			entry.WithError(err).Error("sale record could not be stored")
		}
		result.Sale = sale
	}

	if len(sale.Failures) > 0 {
		entry.Warn("checkout incomplete")
	} else {
		entry.Info("checkout committed")
	}
	result.Cart = c.View()
	return result
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *service) ListSales(ctx context.Context, f SaleFilter) ([]*Sale, error) {
	if f.Limit <= 0 || f.Limit > defaultSalesLimit {
		f.Limit = defaultSalesLimit
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, servererrors.Validation("invalid period", map[string]string{"to": "must not be before from"})
	}
	return s.repo.ListSales(ctx, f)
}

func (s *service) SellableProducts(ctx context.Context, query string) ([]*catalog.Product, error) {
	return s.catalog.ListProducts(ctx, catalog.ProductFilter{
		Query:       query,
		Status:      catalog.StatusActive,
		InStockOnly: true,
	})
}
