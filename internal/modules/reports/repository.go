package reports

import (
	"context"
	"time"

	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
)

// Repository is the read model behind the reports.
type Repository interface {
	// Products returns every product ordered by name.
	Products(ctx context.Context) ([]*catalog.Product, error)
	SalesSince(ctx context.Context, since time.Time) (SalesSummary, error)
}
