package pos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
)

const saleColumns = `id, cashier_id, payment_method, status, total, failures, created_at`

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL sales repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: sqlx.NewDb(db, "postgres")}
}

func (r *postgresRepository) CreateSale(ctx context.Context, sale *Sale) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin sale transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO sales (id, cashier_id, payment_method, status, total, failures)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		sale.ID, sale.CashierID, sale.PaymentMethod, sale.Status, sale.Total, sale.Failures,
	).Scan(&sale.CreatedAt)
	if err != nil {
		return pkgerrors.Wrap(err, "insert sale")
	}

	for i := range sale.Lines {
		line := &sale.Lines[i]
		line.SaleID = sale.ID
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, position, product_id, name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			line.ID, line.SaleID, i, line.ProductID, line.Name, line.Quantity, line.UnitPrice, line.LineTotal)
		if err != nil {
			return pkgerrors.Wrap(err, "insert sale item")
		}
	}

	return pkgerrors.Wrap(tx.Commit(), "commit sale")
}

func (r *postgresRepository) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	sale := &Sale{}
	err := r.db.GetContext(ctx, sale, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sale")
	}
	if err := r.attachLines(ctx, []*Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *postgresRepository) ListSales(ctx context.Context, f SaleFilter) ([]*Sale, error) {
	var from, to *time.Time
	if !f.From.IsZero() {
		from = &f.From
	}
	if !f.To.IsZero() {
		to = &f.To
	}

	sales := []*Sale{}
	err := r.db.SelectContext(ctx, &sales, `
		SELECT `+saleColumns+` FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`, from, to, f.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list sales")
	}
	if err := r.attachLines(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// attachLines loads the items of every sale in one query.
func (r *postgresRepository) attachLines(ctx context.Context, sales []*Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, 0, len(sales))
	byID := make(map[uuid.UUID]*Sale, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID.String())
		byID[s.ID] = s
		s.Lines = []SaleLine{}
	}

	var lines []SaleLine
	err := r.db.SelectContext(ctx, &lines, `
		SELECT id, sale_id, product_id, name, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, position`, pq.Array(ids))
	if err != nil {
		return pkgerrors.Wrap(err, "list sale items")
	}
	for _, line := range lines {
		if s, ok := byID[line.SaleID]; ok {
			s.Lines = append(s.Lines, line)
		}
	}
	return nil
}
