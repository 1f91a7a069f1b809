package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"

	"github.com/georgemunganga/stockpdv/internal/database"
	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
)

const productColumns = `id, name, category, barcode, purchase_price, sale_price, min_stock_threshold,
	current_stock, photo_url, status, expiry_date, created_at, updated_at`

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL product repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *postgresRepository) CreateProduct(ctx context.Context, p *Product, opening *inventory.Movement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin product transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	query := `
		INSERT INTO products (id, name, category, barcode, purchase_price, sale_price,
			min_stock_threshold, current_stock, photo_url, status, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10)
		RETURNING current_stock, created_at, updated_at`
	err = tx.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Category, p.Barcode, p.PurchasePrice, p.SalePrice,
		p.MinStockThreshold, p.PhotoURL, p.Status, p.ExpiryDate,
	).Scan(&p.CurrentStock, &p.CreatedAt, &p.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return uniqueViolation(err)
	}
	if err != nil {
		return pkgerrors.Wrap(err, "insert product")
	}

	if opening != nil {
		if err := inventory.ApplyMovementTx(ctx, tx, opening); err != nil {
			return err
		}
		p.CurrentStock = opening.StockAfter
	}
	return pkgerrors.Wrap(tx.Commit(), "commit product transaction")
}

func (r *postgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p := &Product{}
	err := r.db.GetContext(ctx, p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get product")
	}
	return p, nil
}

func (r *postgresRepository) ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Query != "" {
		args = append(args, "%"+strings.ToLower(f.Query)+"%")
		where = append(where, "LOWER(name) LIKE $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.InStockOnly {
		where = append(where, "current_stock > 0")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name`

	products := []*Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	return products, nil
}

func (r *postgresRepository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products SET name = $2, category = $3, barcode = $4, purchase_price = $5,
			sale_price = $6, min_stock_threshold = $7, photo_url = $8, expiry_date = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING current_stock, status, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Category, p.Barcode, p.PurchasePrice, p.SalePrice,
		p.MinStockThreshold, p.PhotoURL, p.ExpiryDate,
	).Scan(&p.CurrentStock, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrProductNotFound
	case database.IsUniqueViolation(err):
		return uniqueViolation(err)
	}
	return pkgerrors.Wrap(err, "update product")
}

func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return pkgerrors.Wrap(err, "set product status")
	}
	return expectOneRow(res)
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		return ErrProductInUse
	}
	if err != nil {
		return pkgerrors.Wrap(err, "delete product")
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// uniqueViolation tells a duplicate barcode apart from a duplicate id.
func uniqueViolation(err error) error {
	if database.ConstraintOf(err) == "products_barcode_key" {
		return ErrBarcodeTaken
	}
	return ErrDuplicateProduct
}
