package pos

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores sale records.
type Repository interface {
	CreateSale(ctx context.Context, sale *Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (*Sale, error)
	ListSales(ctx context.Context, f SaleFilter) ([]*Sale, error)
}
