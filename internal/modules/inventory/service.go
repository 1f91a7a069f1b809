package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
	"github.com/georgemunganga/stockpdv/internal/validate"
)

// ResultSuccess is the marker returned by a successful adjustment. Any other
// result is a human-readable failure reason.
const ResultSuccess = "Sucesso"

const defaultHistoryLimit = 1000

var (
	ErrProductNotFound      = servererrors.New(servererrors.KindNotFound, "product not found")
	ErrInsufficientStock    = servererrors.New(servererrors.KindInsufficientStock, "insufficient stock")
	ErrInvalidPaymentMethod = servererrors.New(servererrors.KindValidation, "payment method must be one of CASH, CARD, PIX, VOUCHER")
	ErrPaymentOnInbound     = servererrors.New(servererrors.KindValidation, "payment method is only allowed on OUT movements")
	ErrStockOverflow        = servererrors.New(servererrors.KindValidation, "stock would exceed the maximum of 2147483647")
)

// Service is the stock ledger. It is the only writer of current_stock.
type Service interface {
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*Movement, error)
	// CountStock sets the product's stock to a counted value. The returned
	// movement is nil when the stock already matched.
	CountStock(ctx context.Context, req CountStockRequest) (*Movement, error)
	ListMovements(ctx context.Context, f MovementFilter) ([]*Movement, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
}

// Result maps the outcome of AdjustStock onto the ledger's result string.
func Result(err error) string {
	if err == nil {
		return ResultSuccess
	}
	return err.Error()
}

type service struct {
	repo         Repository
	historyLimit int
}

// NewService creates the ledger service. historyLimit caps ListMovements.
func NewService(repo Repository, historyLimit int) Service {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &service{repo: repo, historyLimit: historyLimit}
}

// NewMovement validates req and builds the movement it describes. Callers
// that write the movement inside their own transaction use it so the rules
// match AdjustStock.
func NewMovement(req AdjustStockRequest) (*Movement, error) {
	req.Type = MovementType(strings.ToUpper(string(req.Type)))
	if req.PaymentMethod != nil {
		pm, err := ParsePaymentMethod(string(*req.PaymentMethod))
		if err != nil {
			return nil, err
		}
		req.PaymentMethod = &pm
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Type == MovementIn && req.PaymentMethod != nil {
		return nil, ErrPaymentOnInbound
	}

	return &Movement{
		ID:            uuid.New(),
		ProductID:     req.ProductID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
		Actor:         req.Actor,
		SaleID:        req.SaleID,
	}, nil
}

func (s *service) AdjustStock(ctx context.Context, req AdjustStockRequest) (*Movement, error) {
	m, err := NewMovement(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ApplyMovement(ctx, m); err != nil {
		log.WithFields(log.Fields{
			"product_id": m.ProductID,
			"type":       m.Type,
			"quantity":   m.Quantity,
		}).WithError(err).Warn("stock adjustment rejected")
		return nil, err
	}

	log.WithFields(log.Fields{
		"movement_id": m.ID,
		"product_id":  m.ProductID,
		"type":        m.Type,
		"quantity":    m.Quantity,
		"stock_after": m.StockAfter,
	}).Info("stock adjusted")
	return m, nil
}

func (s *service) CountStock(ctx context.Context, req CountStockRequest) (*Movement, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	m := &Movement{ID: uuid.New(), ProductID: req.ProductID, Actor: req.Actor}
	changed, err := s.repo.ApplyCount(ctx, m, req.Count)
	if err != nil {
		log.WithFields(log.Fields{"product_id": req.ProductID, "count": req.Count}).
			WithError(err).Warn("stock count rejected")
		return nil, err
	}
	if !changed {
		return nil, nil
	}

	log.WithFields(log.Fields{
		"movement_id": m.ID,
		"product_id":  m.ProductID,
		"type":        m.Type,
		"quantity":    m.Quantity,
		"stock_after": m.StockAfter,
	}).Info("stock counted")
	return m, nil
}

func (s *service) ListMovements(ctx context.Context, f MovementFilter) ([]*Movement, error) {
	f.Type = MovementType(strings.ToUpper(string(f.Type)))
	if f.Type != "" && f.Type != MovementIn && f.Type != MovementOut {
		return nil, servererrors.Validation("invalid movement type", map[string]string{"type": "must be one of: IN OUT"})
	}
	if f.Limit <= 0 || f.Limit > s.historyLimit {
		f.Limit = s.historyLimit
	}
	return s.repo.ListMovements(ctx, f)
}

func (s *service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	discrepancies, err := s.repo.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if len(discrepancies) > 0 {
		log.WithField("products", len(discrepancies)).Warn("ledger disagrees with stored stock")
	}
	return discrepancies, nil
}
