package reports

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
)

type LowStockRow struct {
	ProductID         uuid.UUID `json:"product_id"`
	Name              string    `json:"name"`
	CurrentStock      int       `json:"current_stock"`
	MinStockThreshold int       `json:"min_stock_threshold"`
}

type ExpiryRow struct {
	ProductID    uuid.UUID    `json:"product_id"`
	Name         string       `json:"name"`
	ExpiryDate   catalog.Date `json:"expiry_date"`
	DaysLeft     int          `json:"days_left"`
	CurrentStock int          `json:"current_stock"`
}

type ProfitRow struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	UnitProfit      decimal.Decimal `json:"unit_profit"`
	CurrentStock    int             `json:"current_stock"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
}

type ProfitReport struct {
	Rows  []ProfitRow     `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

type StockRow struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	CurrentStock      int             `json:"current_stock"`
	MinStockThreshold int             `json:"min_stock_threshold"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	Status            catalog.Status  `json:"status"`
}

// SalesSummary aggregates sales recorded since a point in time.
type SalesSummary struct {
	Count int             `json:"count" db:"count"`
	Total decimal.Decimal `json:"total" db:"total"`
}

// Dashboard is the landing overview.
type Dashboard struct {
	TotalProducts   int           `json:"total_products"`
	LowStockCount   int           `json:"low_stock_count"`
	LowStock        []LowStockRow `json:"low_stock"`
	NearExpiryCount int           `json:"near_expiry_count"`
	SalesToday      SalesSummary  `json:"sales_today"`
}
