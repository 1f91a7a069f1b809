package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
)

// Repository defines product storage. Stock only changes through ledger
// movements.
type Repository interface {
	// CreateProduct inserts p with zero stock. A non-nil opening movement is
	// applied in the same transaction, so either both persist or neither does.
	CreateProduct(ctx context.Context, p *Product, opening *inventory.Movement) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}
