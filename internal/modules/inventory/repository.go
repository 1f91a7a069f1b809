package inventory

import "context"

// Repository is the ledger storage. Movements can only be appended.
type Repository interface {
	// ApplyMovement changes the product's stock and appends m in one
	// transaction. On success StockAfter, ID and CreatedAt are filled in.
	ApplyMovement(ctx context.Context, m *Movement) error
	// ApplyCount locks the product, fills m.Type and m.Quantity with the
	// difference to count and applies it in the same transaction. It reports
	// false, with m.StockAfter set and nothing written, when the stock
	// already equals count.
	ApplyCount(ctx context.Context, m *Movement, count int) (bool, error)
	ListMovements(ctx context.Context, f MovementFilter) ([]*Movement, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
}
