package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"

	"github.com/georgemunganga/stockpdv/internal/database"
)

const stockConstraint = "products_current_stock_non_negative"

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates the PostgreSQL ledger.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *postgresRepository) ApplyMovement(ctx context.Context, m *Movement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin ledger transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ApplyMovementTx(ctx, tx, m); err != nil {
		return err
	}
	return pkgerrors.Wrap(tx.Commit(), "commit ledger transaction")
}

func (r *postgresRepository) ApplyCount(ctx context.Context, m *Movement, count int) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, pkgerrors.Wrap(err, "begin ledger transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	// FOR UPDATE keeps sales out until the counted movement is written, so
	// the stock lands exactly on count.
	var current int
	err = tx.QueryRowxContext(ctx, `SELECT current_stock FROM products WHERE id = $1 FOR UPDATE`, m.ProductID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrProductNotFound
	}
	if err != nil {
		return false, pkgerrors.Wrap(err, "lock product stock")
	}

	delta := count - current
	if delta == 0 {
		m.StockAfter = current
		return false, nil
	}
	m.Type, m.Quantity = MovementIn, delta
	if delta < 0 {
		m.Type, m.Quantity = MovementOut, -delta
	}
	if err := ApplyMovementTx(ctx, tx, m); err != nil {
		return false, err
	}
	return true, pkgerrors.Wrap(tx.Commit(), "commit ledger transaction")
}

// ApplyMovementTx changes the product's stock and appends m inside tx. The
// caller owns the transaction; nothing is visible until it commits.
func ApplyMovementTx(ctx context.Context, tx *sqlx.Tx, m *Movement) error {
	// The conditional update takes the row lock, so concurrent OUTs on one
	// product serialize here and the second one re-evaluates the predicate.
	query := `UPDATE products SET current_stock = current_stock + $2, updated_at = NOW()
		WHERE id = $1 RETURNING current_stock`
	if m.Type == MovementOut {
		query = `UPDATE products SET current_stock = current_stock - $2, updated_at = NOW()
			WHERE id = $1 AND current_stock >= $2 RETURNING current_stock`
	}

	err := tx.QueryRowxContext(ctx, query, m.ProductID, m.Quantity).Scan(&m.StockAfter)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		var available int
		err = tx.QueryRowxContext(ctx, `SELECT current_stock FROM products WHERE id = $1`, m.ProductID).Scan(&available)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return pkgerrors.Wrap(err, "read product stock")
		}
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, m.Quantity, available)
	case database.IsCheckViolation(err, stockConstraint):
		return ErrInsufficientStock
	case database.IsOutOfRange(err):
		return ErrStockOverflow
	case err != nil:
		return pkgerrors.Wrap(err, "update product stock")
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO movements (id, product_id, type, quantity, payment_method, stock_after, actor, sale_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.PaymentMethod, m.StockAfter, m.Actor, m.SaleID,
	).Scan(&m.CreatedAt)
	return pkgerrors.Wrap(err, "insert movement")
}

func (r *postgresRepository) ListMovements(ctx context.Context, f MovementFilter) ([]*Movement, error) {
	query := `
		SELECT m.id, m.product_id, p.name AS product_name, m.type, m.quantity, m.payment_method,
		       m.stock_after, m.actor, m.sale_id, m.created_at
		FROM movements m
		JOIN products p ON p.id = m.product_id
		WHERE ($1::uuid IS NULL OR m.product_id = $1)
		  AND ($2 = '' OR m.type = $2)
		ORDER BY m.created_at DESC, m.id
		LIMIT $3`

	movements := []*Movement{}
	if err := r.db.SelectContext(ctx, &movements, query, f.ProductID, string(f.Type), f.Limit); err != nil {
		return nil, pkgerrors.Wrap(err, "list movements")
	}
	return movements, nil
}

func (r *postgresRepository) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	query := `
		SELECT p.id AS product_id, p.name, p.current_stock,
		       COALESCE(SUM(CASE WHEN m.type = 'IN' THEN m.quantity ELSE -m.quantity END), 0) AS ledger_stock
		FROM products p
		LEFT JOIN movements m ON m.product_id = p.id
		GROUP BY p.id, p.name, p.current_stock
		HAVING p.current_stock <> COALESCE(SUM(CASE WHEN m.type = 'IN' THEN m.quantity ELSE -m.quantity END), 0)
		ORDER BY p.name`

	discrepancies := []Discrepancy{}
	if err := r.db.SelectContext(ctx, &discrepancies, query); err != nil {
		return nil, pkgerrors.Wrap(err, "reconcile ledger")
	}
	return discrepancies, nil
}
