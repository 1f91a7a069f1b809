package reports

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"

	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
)

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates the reports read model.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *postgresRepository) Products(ctx context.Context) ([]*catalog.Product, error) {
	products := []*catalog.Product{}
	err := r.db.SelectContext(ctx, &products, `
		SELECT id, name, category, barcode, purchase_price, sale_price, min_stock_threshold,
		       current_stock, photo_url, status, expiry_date, created_at, updated_at
		FROM products
		ORDER BY name`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load products for reports")
	}
	return products, nil
}

func (r *postgresRepository) SalesSince(ctx context.Context, since time.Time) (SalesSummary, error) {
	var summary SalesSummary
	err := r.db.GetContext(ctx, &summary, `
		SELECT COUNT(*) AS count, COALESCE(SUM(total), 0) AS total
		FROM sales WHERE created_at >= $1`, since)
	if err != nil {
		return SalesSummary{}, pkgerrors.Wrap(err, "summarize sales")
	}
	return summary, nil
}
