package reports

import (
	"context"
	"time"

	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
)

const defaultNearExpiryDays = 30

// Service computes the read-only reports.
type Service interface {
	LowStock(ctx context.Context) ([]LowStockRow, error)
	// NearExpiry uses the configured window when days is not positive.
	NearExpiry(ctx context.Context, days int) ([]ExpiryRow, error)
	ProfitPotential(ctx context.Context) (ProfitReport, error)
	Stock(ctx context.Context) ([]StockRow, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	repo           Repository
	location       *time.Location
	nearExpiryDays int
	now            func() time.Time
}

// NewService creates the reports service. Calendar days are counted in loc.
func NewService(repo Repository, loc *time.Location, nearExpiryDays int) Service {
	if loc == nil {
		loc = time.UTC
	}
	if nearExpiryDays <= 0 {
		nearExpiryDays = defaultNearExpiryDays
	}
	return &service{repo: repo, location: loc, nearExpiryDays: nearExpiryDays, now: time.Now}
}

func (s *service) LowStock(ctx context.Context) ([]LowStockRow, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	return LowStock(products), nil
}

func (s *service) NearExpiry(ctx context.Context, days int) ([]ExpiryRow, error) {
	if days <= 0 {
		days = s.nearExpiryDays
	}
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	return NearExpiry(products, s.now(), s.location, days), nil
}

func (s *service) ProfitPotential(ctx context.Context) (ProfitReport, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return ProfitReport{}, err
	}
	return ProfitPotential(products), nil
}

func (s *service) Stock(ctx context.Context) ([]StockRow, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]StockRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, stockRow(p))
	}
	return rows, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sales, err := s.repo.SalesSince(ctx, StartOfDay(now, s.location))
	if err != nil {
		return nil, err
	}

	low := LowStock(products)
	return &Dashboard{
		TotalProducts:   len(products),
		LowStockCount:   len(low),
		LowStock:        low,
		NearExpiryCount: len(NearExpiry(products, now, s.location, s.nearExpiryDays)),
		SalesToday:      sales,
	}, nil
}

func stockRow(p *catalog.Product) StockRow {
	return StockRow{
		ProductID:         p.ID,
		Name:              p.Name,
		Category:          p.Category,
		CurrentStock:      p.CurrentStock,
		MinStockThreshold: p.MinStockThreshold,
		PurchasePrice:     p.PurchasePrice,
		SalePrice:         p.SalePrice,
		Status:            p.Status,
	}
}
